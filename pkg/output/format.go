// Package output renders compiled reports for people and machines: a
// pt-BR plain-text summary, CSV, and the canonical JSON document.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hlxtech/licitacost/internal/report"
	"github.com/hlxtech/licitacost/pkg/constants"
	"github.com/hlxtech/licitacost/pkg/format"
)

// ValidateFormat checks that the requested output format is supported.
func ValidateFormat(outputFormat string) error {
	switch outputFormat {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("unsupported output format %q, expected one of %s, %s, %s",
		outputFormat, constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON)
}

// PrettyFormat prints the human-readable report summary to stdout.
func PrettyFormat(rep *report.Report) {
	fmt.Print(PrettyString(rep))
}

// PrettyString renders the report as the pt-BR plain-text summary.
func PrettyString(rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Projeto: %s - %s\n", rep.ProjectNumber, rep.ClientName)
	fmt.Fprintf(&b, "Empresa (estado base): %s\n", rep.CompanyState)
	fmt.Fprintf(&b, "Venda bruta: %s\n", format.Currency(rep.GrossSale))
	fmt.Fprintf(&b, "DAS (Simples %s): %s\n", format.Percent(rep.SimplesRate), format.Currency(rep.DasTotal))

	b.WriteString("\nProdutos:\n")
	for _, p := range rep.Products {
		fmt.Fprintf(&b, "  - %s | Qtd: %d | Compra: %s | Venda: %s | Origem: %s | Destino: %s | DIFAL IN: %s | DIFAL OUT: %s\n",
			p.Description, p.Qty,
			format.Currency(p.PurchaseTotal), format.Currency(p.SaleTotal),
			stateOrDash(p.PurchaseState), stateOrDash(p.SaleState),
			format.Currency(p.DifalIn), format.Currency(p.DifalOut))
	}

	b.WriteString("\nOutros custos:\n")
	if len(rep.OtherCosts) == 0 {
		b.WriteString("  (nenhum)\n")
	} else {
		for _, oc := range rep.OtherCosts {
			fmt.Fprintf(&b, "  - %s: %s\n", oc.Description, format.Currency(oc.Cost))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Total compras (produtos): %s\n", format.Currency(rep.TotalPurchase))
	fmt.Fprintf(&b, "DIFAL ENTRADA (compra interestadual → %s): %s\n", rep.CompanyState, format.Currency(rep.TotalDifalIn))
	fmt.Fprintf(&b, "DIFAL SAÍDA (venda interestadual): %s\n", format.Currency(rep.TotalDifalOut))
	fmt.Fprintf(&b, "Outros custos: %s\n", format.Currency(rep.TotalOther))
	fmt.Fprintf(&b, "CUSTO TOTAL: %s\n", format.Currency(rep.TotalCost))
	fmt.Fprintf(&b, "LUCRO LÍQUIDO: %s (%s)\n", format.Currency(rep.NetValue), format.Percent(rep.NetPercent/constants.PercentageMultiplier))

	b.WriteString("\nPreço mínimo de venda para lucro desejado:\n")
	for _, margin := range sortedKeys(rep.MinSaleForProfit) {
		fmt.Fprintf(&b, "  %s: %s\n", margin, format.Currency(rep.MinSaleForProfit[margin]))
	}

	b.WriteString("\nPremissas:\n")
	fmt.Fprintf(&b, "  Alíquota interestadual: %s\n", format.Percent(rep.Assumptions.InterstateRate))
	rates := make([]string, 0, len(rep.Assumptions.StateRates))
	for _, state := range sortedKeys(rep.Assumptions.StateRates) {
		rates = append(rates, fmt.Sprintf("%s:%.0f%%", state, rep.Assumptions.StateRates[state]*constants.PercentageMultiplier))
	}
	fmt.Fprintf(&b, "  Alíquotas internas: %s\n", strings.Join(rates, ", "))
	fmt.Fprintf(&b, "  Nota: %s\n", rep.Assumptions.Note)

	return b.String()
}

// CsvFormat prints the per-product breakdown in comma-separated value
// format to stdout.
func CsvFormat(rep *report.Report) {
	fmt.Print(CsvString(rep))
}

// CsvString renders the per-product breakdown as CSV with a trailing
// totals row.
func CsvString(rep *report.Report) string {
	var b strings.Builder

	b.WriteString(`"description","qty","purchase_total","sale_total","purchase_state","sale_state","difal_in","difal_out"` + "\n")
	for _, p := range rep.Products {
		fmt.Fprintf(&b, `"%s","%d","%.2f","%.2f","%s","%s","%.2f","%.2f"`+"\n",
			csvEscape(p.Description), p.Qty, p.PurchaseTotal, p.SaleTotal,
			p.PurchaseState, p.SaleState, p.DifalIn, p.DifalOut)
	}
	fmt.Fprintf(&b, `"TOTAL","","%.2f","%.2f","","","%.2f","%.2f"`+"\n",
		rep.TotalPurchase, rep.GrossSale, rep.TotalDifalIn, rep.TotalDifalOut)

	return b.String()
}

// JSONBytes renders the canonical report document, indented for readability.
// Map keys serialize in sorted order, so equal reports produce equal bytes.
func JSONBytes(rep *report.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// WriteJSON exports the report document under dir, named after the project
// number and the report's own creation timestamp. It returns the written
// file path.
func WriteJSON(dir string, rep *report.Report) (string, error) {
	data, err := JSONBytes(rep)
	if err != nil {
		return "", err
	}

	createdAt, err := time.Parse(time.RFC3339, rep.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("parse report timestamp: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	name := fmt.Sprintf("report_%s_%s.json", rep.ProjectNumber, createdAt.Format(constants.ReportFileTimeLayout))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}

func stateOrDash(state string) string {
	if state == "" {
		return "-"
	}
	return state
}

func csvEscape(value string) string {
	return strings.ReplaceAll(value, `"`, `""`)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
