// Package calendar holds the economic-calendar domain model: raw scraped
// rows, the normalized Event entity, numeric cell parsing and the directional
// impact heuristic. Everything here is pure; fetching and dispatch live in
// their own packages.
package calendar

import (
	"fmt"
	"hash/fnv"
)

// Impact is the source-assigned severity of a release.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
)

// NoDataText is the display sentinel for an empty cell (also used upstream
// for "not yet released").
const NoDataText = "-"

// RawRow is one scraped calendar table row, still untyped. Cell texts are
// empty when the cell was missing entirely.
type RawRow struct {
	ID          string // native row identifier, may be empty
	Time        string
	Currency    string
	ImpactClass string // raw style marker, e.g. "icon--ff-impact-red high"
	Event       string
	Actual      string
	Forecast    string
	Previous    string
}

// Event is one calendar entry for the tracked currency, High or Medium
// impact only. Numeric values are nil when the cell was absent or did not
// parse; the display texts are always populated (NoDataText when absent) so
// messages can show exactly what the source showed.
type Event struct {
	ID       string
	Time     string // local wall-clock display time, e.g. "8:30am"
	Currency string
	Name     string
	Impact   Impact

	Actual   *float64
	Forecast *float64

	ActualText   string
	ForecastText string
	PreviousText string
}

// HasActual reports whether the actual figure has been published.
func (e Event) HasActual() bool {
	return e.ActualText != "" && e.ActualText != NoDataText
}

// HasForecast reports whether a forecast figure is shown for the event.
func (e Event) HasForecast() bool {
	return e.ForecastText != "" && e.ForecastText != NoDataText
}

// FallbackID derives a row identity when the source provides none. It hashes
// name, display time and currency together so two same-named events on one
// day (e.g. a revised and an original release at different times) do not
// collide and suppress each other's notifications.
func FallbackID(name, timeText, currency string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(timeText))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(currency))
	return fmt.Sprintf("evt:%x", h.Sum64())
}
