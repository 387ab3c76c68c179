package calendar

import "strings"

// SkipReason says why a raw row did not become an Event.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipMalformed: the row lacks the cells we need to even identify it.
	SkipMalformed
	// SkipCurrency: the row belongs to a currency we don't track.
	SkipCurrency
	// SkipImpact: low-impact or unmarked rows are never retained.
	SkipImpact
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipMalformed:
		return "malformed"
	case SkipCurrency:
		return "currency"
	case SkipImpact:
		return "impact"
	default:
		return "unknown"
	}
}

// Normalize shapes one raw row into an Event, or reports why it was skipped.
// A skipped row is an expected per-item outcome; it never fails the batch.
func Normalize(row RawRow, currency string) (Event, SkipReason) {
	cur := strings.TrimSpace(row.Currency)
	if cur == "" && strings.TrimSpace(row.Event) == "" {
		return Event{}, SkipMalformed
	}
	if cur != currency {
		return Event{}, SkipCurrency
	}

	impact, ok := impactFromClass(row.ImpactClass)
	if !ok {
		return Event{}, SkipImpact
	}

	name := strings.TrimSpace(row.Event)
	if name == "" {
		name = "Economic News"
	}
	timeText := strings.TrimSpace(row.Time)

	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = FallbackID(name, timeText, cur)
	}

	ev := Event{
		ID:           id,
		Time:         timeText,
		Currency:     cur,
		Name:         name,
		Impact:       impact,
		ActualText:   cellText(row.Actual),
		ForecastText: cellText(row.Forecast),
		PreviousText: cellText(row.Previous),
	}

	// Numeric values are best-effort: a present but unparseable cell leaves
	// the value nil without dropping the event.
	if v, ok := ParseNumber(row.Actual); ok {
		ev.Actual = &v
	}
	if v, ok := ParseNumber(row.Forecast); ok {
		ev.Forecast = &v
	}

	return ev, SkipNone
}

func impactFromClass(class string) (Impact, bool) {
	c := strings.ToLower(class)
	if strings.Contains(c, "high") {
		return ImpactHigh, true
	}
	if strings.Contains(c, "medium") {
		return ImpactMedium, true
	}
	return "", false
}

func cellText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDataText
	}
	return s
}
