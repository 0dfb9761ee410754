package tax

import (
	"math"
	"testing"
)

func testTable() Table {
	return NewTable("MG", 0.12, map[string]float64{
		"MG": 0.18,
		"SP": 0.18,
		"RJ": 0.20,
	})
}

func TestRateFor(t *testing.T) {
	table := testTable()

	tests := []struct {
		name     string
		state    string
		expected float64
	}{
		{"Empty state", "", 0.0},
		{"Whitespace only", "  ", 0.0},
		{"Known state", "RJ", 0.20},
		{"Known state lowercase", "rj", 0.20},
		{"Known state padded", " mg ", 0.18},
		{"Unknown state falls back to interstate", "BA", 0.12},
		{"Unknown state lowercase", "pr", 0.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.RateFor(tt.state); got != tt.expected {
				t.Errorf("RateFor(%q) = %v, expected %v", tt.state, got, tt.expected)
			}
		})
	}
}

func TestNewTableNormalizesCodes(t *testing.T) {
	table := NewTable(" mg ", 0.12, map[string]float64{"rj": 0.20})

	if table.HomeState() != "MG" {
		t.Errorf("HomeState() = %q, expected MG", table.HomeState())
	}
	if got := table.RateFor("RJ"); got != 0.20 {
		t.Errorf("RateFor(RJ) = %v, expected 0.20", got)
	}
}

func TestHomeRate(t *testing.T) {
	if got := testTable().HomeRate(); got != 0.18 {
		t.Errorf("HomeRate() = %v, expected 0.18", got)
	}

	// A home state missing from the table still resolves via the fallback.
	exotic := NewTable("TO", 0.12, map[string]float64{"MG": 0.18})
	if got := exotic.HomeRate(); got != 0.12 {
		t.Errorf("HomeRate() = %v, expected interstate fallback 0.12", got)
	}
}

func TestStateRatesReturnsCopy(t *testing.T) {
	table := testTable()
	rates := table.StateRates()
	rates["RJ"] = 0.99

	if got := table.RateFor("RJ"); got != 0.20 {
		t.Errorf("mutating StateRates() copy changed the table: RateFor(RJ) = %v", got)
	}
}

func TestDifalOut(t *testing.T) {
	table := testTable()

	tests := []struct {
		name          string
		saleState     string
		saleTotal     float64
		purchaseTotal float64
		expected      float64
	}{
		{"Spec example RJ destination", "RJ", 300.0, 200.0, 24.0},
		{"Home state destination", "MG", 300.0, 200.0, 0.0},
		{"No destination", "", 300.0, 200.0, 0.0},
		{"Unknown destination clamps to zero", "BA", 300.0, 200.0, 0.0},
		{"Cost-only line falls back to purchase total", "RJ", 0.0, 200.0, 16.0},
		{"Lowercase destination", "rj", 300.0, 200.0, 24.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.DifalOut(SaleOrPurchase, tt.saleState, tt.saleTotal, tt.purchaseTotal)
			if math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("DifalOut(%q, %v, %v) = %v, expected %v",
					tt.saleState, tt.saleTotal, tt.purchaseTotal, got, tt.expected)
			}
			if got < 0 {
				t.Errorf("DifalOut returned negative value %v", got)
			}
		})
	}
}

func TestDifalIn(t *testing.T) {
	table := testTable()

	tests := []struct {
		name          string
		purchaseState string
		purchaseTotal float64
		expected      float64
	}{
		{"Spec example SP origin", "SP", 200.0, 12.0},
		{"Home state origin", "MG", 200.0, 0.0},
		{"No origin", "", 200.0, 0.0},
		{"Unknown origin still charges home differential", "BA", 200.0, 12.0},
		{"Lowercase origin", "sp", 200.0, 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.DifalIn(tt.purchaseState, tt.purchaseTotal)
			if math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("DifalIn(%q, %v) = %v, expected %v",
					tt.purchaseState, tt.purchaseTotal, got, tt.expected)
			}
			if got < 0 {
				t.Errorf("DifalIn returned negative value %v", got)
			}
		})
	}
}

func TestDifalInClampsWhenHomeRateBelowInterstate(t *testing.T) {
	// Home rate 0.10 below the 0.12 interstate rate must clamp to zero, not
	// produce a credit.
	table := NewTable("XX", 0.12, map[string]float64{"XX": 0.10})
	if got := table.DifalIn("SP", 1000.0); got != 0.0 {
		t.Errorf("DifalIn with low home rate = %v, expected 0", got)
	}
}

func TestSaleBase(t *testing.T) {
	if got := SaleOrPurchase.SaleBase(300.0, 200.0); got != 300.0 {
		t.Errorf("SaleBase(300, 200) = %v, expected 300", got)
	}
	if got := SaleOrPurchase.SaleBase(0.0, 200.0); got != 200.0 {
		t.Errorf("SaleBase(0, 200) = %v, expected 200", got)
	}
}
