package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hlxtech/licitacost/pkg/constants"
	"github.com/hlxtech/licitacost/pkg/mathutil"
	"github.com/hlxtech/licitacost/pkg/tax"
)

// Options carries the rate assumptions and targets for one compilation.
// The zero value is usable: it resolves to the company defaults.
type Options struct {
	Table              tax.Table
	Basis              tax.ValuationBasis
	Margins            []float64
	DefaultSimplesRate float64
}

// NewOptions builds Options around an explicit rate table.
func NewOptions(table tax.Table) Options {
	return Options{Table: table, Basis: tax.SaleOrPurchase}
}

func (o Options) resolved() Options {
	if o.Table.HomeState() == "" {
		o.Table = tax.DefaultTable()
	}
	if len(o.Margins) == 0 {
		o.Margins = constants.DefaultProfitMargins
	}
	if o.DefaultSimplesRate == 0 {
		o.DefaultSimplesRate = constants.DefaultSimplesRate
	}
	return o
}

// Compile turns a project snapshot into a Report timestamped now.
func Compile(logger *zap.Logger, project Project, opts Options) (*Report, error) {
	return CompileAt(logger, project, opts, time.Now())
}

// CompileAt is Compile with an injectable clock. Two calls with identical
// input and the same instant produce identical reports.
//
// The only error condition is a profit-margin target at or above 100%,
// which has no solvable minimum sale price. Incomplete project data never
// fails; absent numerics degrade to zero figures.
func CompileAt(logger *zap.Logger, project Project, opts Options, now time.Time) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.resolved()

	for _, margin := range opts.Margins {
		if margin >= 1.0 {
			return nil, fmt.Errorf("profit margin target %.2f must be below 1.0", margin)
		}
	}

	items, totalPurchase, totalSaleAssigned := expandLineItems(project)
	gross := resolveGross(project, totalSaleAssigned)

	simplesRate := project.SimplesRate
	if simplesRate == 0 {
		simplesRate = opts.DefaultSimplesRate
	}
	dasTotal := gross * simplesRate

	var totalDifalIn, totalDifalOut float64
	for i := range items {
		items[i].DifalOut = opts.Table.DifalOut(opts.Basis, items[i].SaleState, items[i].SaleTotal, items[i].PurchaseTotal)
		items[i].DifalIn = opts.Table.DifalIn(items[i].PurchaseState, items[i].PurchaseTotal)
		totalDifalOut += items[i].DifalOut
		totalDifalIn += items[i].DifalIn
	}

	var totalOther float64
	otherCosts := make([]OtherCost, len(project.OtherCosts))
	copy(otherCosts, project.OtherCosts)
	for _, other := range otherCosts {
		totalOther += other.Cost
	}

	totalCost := totalPurchase + totalDifalIn + totalDifalOut + totalOther + dasTotal
	netValue := gross - totalCost
	netPercent := mathutil.CalculatePercentage(netValue, gross)

	// The minimum sale price assumes total cost does not scale with the
	// hypothetical sale price; a price-sensitive cost model would need to
	// replace this closed-form solve.
	minSale := make(map[string]float64, len(opts.Margins))
	for _, margin := range opts.Margins {
		label := fmt.Sprintf("%d%%", int(math.Round(margin*constants.PercentageMultiplier)))
		minSale[label] = mathutil.Round(totalCost / (1.0 - margin))
	}

	logger.Debug("report compiled",
		zap.String("op", "report.CompileAt"),
		zap.String("projectNumber", project.ProjectNumber),
		zap.Int("products", len(items)),
		zap.Float64("grossSale", gross),
		zap.Float64("totalCost", totalCost),
	)

	return &Report{
		ProjectNumber:    project.ProjectNumber,
		ClientName:       project.ClientName,
		CreatedAt:        now.Format(time.RFC3339),
		CompanyState:     opts.Table.HomeState(),
		GrossSale:        gross,
		SimplesRate:      simplesRate,
		DasTotal:         dasTotal,
		Products:         items,
		TotalPurchase:    totalPurchase,
		TotalDifalIn:     totalDifalIn,
		TotalDifalOut:    totalDifalOut,
		OtherCosts:       otherCosts,
		TotalOther:       totalOther,
		TotalCost:        totalCost,
		NetValue:         netValue,
		NetPercent:       netPercent,
		MinSaleForProfit: minSale,
		Assumptions: Assumptions{
			InterstateRate: opts.Table.InterstateRate(),
			StateRates:     opts.Table.StateRates(),
			Note:           constants.AssumptionsNote,
		},
	}, nil
}

// expandLineItems applies the per-product defaults (qty floor of 1, state
// fallback to the project level, uppercasing) and expands unit figures into
// totals. Returned alongside are the project-wide purchase and assigned-sale
// sums.
func expandLineItems(project Project) ([]ProductBreakdown, float64, float64) {
	items := make([]ProductBreakdown, 0, len(project.Products))
	var totalPurchase, totalSaleAssigned float64

	for _, product := range project.Products {
		qty := product.Qty
		if qty < 1 {
			qty = 1
		}

		purchaseTotal := product.PurchaseCost * float64(qty)
		saleTotal := product.SalePrice * float64(qty)
		totalPurchase += purchaseTotal
		totalSaleAssigned += saleTotal

		items = append(items, ProductBreakdown{
			Description:   product.Description,
			Qty:           qty,
			PurchaseTotal: purchaseTotal,
			SaleTotal:     saleTotal,
			PurchaseState: resolveState(product.PurchaseState, project.PurchaseState),
			SaleState:     resolveState(product.SaleState, project.SaleState),
		})
	}

	return items, totalPurchase, totalSaleAssigned
}

// resolveGross applies the precedence rule: line-item pricing, when any
// exists, overrides the manually entered project figure entirely.
func resolveGross(project Project, totalSaleAssigned float64) float64 {
	if totalSaleAssigned > 0 {
		return totalSaleAssigned
	}
	return project.GrossSale
}

func resolveState(productState, projectState string) string {
	state := strings.TrimSpace(productState)
	if state == "" {
		state = strings.TrimSpace(projectState)
	}
	return strings.ToUpper(state)
}
