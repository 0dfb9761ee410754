// Package format renders monetary values and rates in pt-BR conventions.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hlxtech/licitacost/pkg/constants"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Currency returns a BRL currency string with pt-BR separators (e.g., "R$ 1.234,56").
func Currency(amount float64) string {
	return printer.Sprintf("R$ %.2f", amount)
}

// Percent renders a rate fraction as a percentage (e.g., 0.18 -> "18,00%").
func Percent(rate float64) string {
	return printer.Sprintf("%.2f%%", rate*constants.PercentageMultiplier)
}
