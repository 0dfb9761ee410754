// Package tax implements the simplified two-tier ICMS model used for tender
// bid costing: a fixed table of intrastate rates, a default interstate rate,
// and the in/out interstate differentials (DIFAL) derived from them.
package tax

import (
	"strings"

	"github.com/hlxtech/licitacost/pkg/constants"
)

// Table holds the rate assumptions for one calculation run. It is an
// immutable value; construct a fresh one to change assumptions.
type Table struct {
	homeState      string
	interstateRate float64
	stateRates     map[string]float64
}

// NewTable builds a Table from a home state, the default interstate rate,
// and a map of intrastate rates. State codes are uppercased on the way in so
// later lookups never depend on input casing.
func NewTable(homeState string, interstateRate float64, stateRates map[string]float64) Table {
	rates := make(map[string]float64, len(stateRates))
	for state, rate := range stateRates {
		rates[normalize(state)] = rate
	}
	return Table{
		homeState:      normalize(homeState),
		interstateRate: interstateRate,
		stateRates:     rates,
	}
}

// DefaultTable returns a Table with the company defaults.
func DefaultTable() Table {
	return NewTable(constants.DefaultHomeState, constants.DefaultInterstateRate, constants.DefaultStateRates)
}

// HomeState returns the uppercased company home state.
func (t Table) HomeState() string {
	return t.homeState
}

// InterstateRate returns the baseline interstate rate.
func (t Table) InterstateRate() float64 {
	return t.interstateRate
}

// StateRates returns a copy of the intrastate rate map.
func (t Table) StateRates() map[string]float64 {
	rates := make(map[string]float64, len(t.stateRates))
	for state, rate := range t.stateRates {
		rates[state] = rate
	}
	return rates
}

// RateFor resolves the intrastate rate for a state code. An empty code means
// no origin/destination was given and yields 0; a code missing from the
// table degrades to the interstate rate. RateFor never fails.
func (t Table) RateFor(state string) float64 {
	code := normalize(state)
	if code == "" {
		return 0.0
	}
	if rate, ok := t.stateRates[code]; ok {
		return rate
	}
	return t.interstateRate
}

// HomeRate is the intrastate rate of the company home state.
func (t Table) HomeRate() float64 {
	return t.RateFor(t.homeState)
}

func normalize(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}
