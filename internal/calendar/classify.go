package calendar

import "strings"

// Direction is a directional market bias for one instrument.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// Outcome is the overall classification of a released figure.
type Outcome int

const (
	// OutcomeUnclear means actual or forecast is unknown.
	OutcomeUnclear Outcome = iota
	// OutcomeMatched means the release matched the forecast exactly.
	OutcomeMatched
	// OutcomeDirectional means the release diverged from the forecast;
	// see the Currency and Asset directions.
	OutcomeDirectional
)

// Bias pairs the directional read for the tracked currency with the inverse
// read for the correlated safe-haven asset (gold). Rendering it into words
// is the dispatch layer's job.
type Bias struct {
	Outcome  Outcome
	Currency Direction
	Asset    Direction
}

// Indicators where a rising figure is bad for the currency. Matched
// case-insensitively as substrings of the event name.
var inverseIndicators = []string{
	"unemployment",
	"jobless",
	"budget deficit",
	"trade deficit",
}

// Classify decides the likely market bias of a released figure against its
// forecast. Nil actual or forecast yields OutcomeUnclear; an exact match
// yields OutcomeMatched. Otherwise a beat is currency-positive unless the
// event is an inverse indicator, and the asset always takes the opposite
// direction.
func Classify(eventName string, actual, forecast *float64) Bias {
	if actual == nil || forecast == nil {
		return Bias{Outcome: OutcomeUnclear}
	}
	diff := *actual - *forecast
	if diff == 0 {
		return Bias{Outcome: OutcomeMatched}
	}

	inverse := false
	lower := strings.ToLower(eventName)
	for _, ind := range inverseIndicators {
		if strings.Contains(lower, ind) {
			inverse = true
			break
		}
	}

	currencyPositive := diff > 0
	if inverse {
		currencyPositive = diff < 0
	}

	if currencyPositive {
		return Bias{Outcome: OutcomeDirectional, Currency: DirectionUp, Asset: DirectionDown}
	}
	return Bias{Outcome: OutcomeDirectional, Currency: DirectionDown, Asset: DirectionUp}
}
