// Package report defines the engine input records and compiles a project
// snapshot into a fully itemized financial report.
package report

// Project is the engine input: one tender bid with its products and
// miscellaneous costs. Numeric fields left at zero mean "absent" and take
// the documented defaults during compilation; nothing here ever causes the
// engine to fail.
type Project struct {
	ProjectNumber string      `json:"project_number"`
	ClientName    string      `json:"client_name"`
	GrossSale     float64     `json:"gross_sale"`
	PurchaseState string      `json:"purchase_state"`
	SaleState     string      `json:"sale_state"`
	SimplesRate   float64     `json:"simples_rate"`
	Products      []Product   `json:"products"`
	OtherCosts    []OtherCost `json:"other_costs"`
}

// Product is one line item. PurchaseCost and SalePrice are per unit; empty
// state codes fall back to the project-level defaults.
type Product struct {
	Description   string  `json:"description"`
	PurchaseCost  float64 `json:"purchase_cost"`
	SalePrice     float64 `json:"sale_price"`
	Qty           int     `json:"qty"`
	PurchaseState string  `json:"purchase_state"`
	SaleState     string  `json:"sale_state"`
}

// OtherCost is a flat overhead entry attached to the project.
type OtherCost struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

// ProductBreakdown is the per-line output: expanded totals, resolved states,
// and both interstate differentials.
type ProductBreakdown struct {
	Description   string  `json:"description"`
	Qty           int     `json:"qty"`
	PurchaseTotal float64 `json:"purchase_total"`
	SaleTotal     float64 `json:"sale_total"`
	PurchaseState string  `json:"purchase_state"`
	SaleState     string  `json:"sale_state"`
	DifalIn       float64 `json:"difal_in"`
	DifalOut      float64 `json:"difal_out"`
}

// Assumptions records the rate inputs a report was derived from, so a
// consumer can audit the figures without re-running the engine.
type Assumptions struct {
	InterstateRate float64            `json:"interstate_rate"`
	StateRates     map[string]float64 `json:"state_rates"`
	Note           string             `json:"note"`
}

// Report is the compiled output. It is a value object: immutable once
// computed, timestamped at creation, and tied back to its project only by
// ProjectNumber. Field order matches the exported JSON document.
type Report struct {
	ProjectNumber    string             `json:"project_number"`
	ClientName       string             `json:"client_name"`
	CreatedAt        string             `json:"created_at"`
	CompanyState     string             `json:"company_state"`
	GrossSale        float64            `json:"gross_sale"`
	SimplesRate      float64            `json:"simples_rate"`
	DasTotal         float64            `json:"das_total"`
	Products         []ProductBreakdown `json:"products"`
	TotalPurchase    float64            `json:"total_purchase"`
	TotalDifalIn     float64            `json:"total_difal_in"`
	TotalDifalOut    float64            `json:"total_difal_out"`
	OtherCosts       []OtherCost        `json:"other_costs"`
	TotalOther       float64            `json:"total_other"`
	TotalCost        float64            `json:"total_cost"`
	NetValue         float64            `json:"net_value"`
	NetPercent       float64            `json:"net_percent"`
	MinSaleForProfit map[string]float64 `json:"min_sale_for_profit"`
	Assumptions      Assumptions        `json:"assumptions"`
}
