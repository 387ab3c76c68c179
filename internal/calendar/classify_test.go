package calendar

import "testing"

func f(v float64) *float64 { return &v }

func TestClassifyDirectional(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		event    string
		actual   *float64
		forecast *float64
		want     Bias
	}{
		{
			name:  "beat is currency positive",
			event: "Nonfarm Payrolls", actual: f(200), forecast: f(180),
			want: Bias{Outcome: OutcomeDirectional, Currency: DirectionUp, Asset: DirectionDown},
		},
		{
			name:  "miss is currency negative",
			event: "CPI m/m", actual: f(0.2), forecast: f(0.3),
			want: Bias{Outcome: OutcomeDirectional, Currency: DirectionDown, Asset: DirectionUp},
		},
		{
			name:  "unemployment beat inverts",
			event: "Unemployment Rate", actual: f(4.0), forecast: f(3.8),
			want: Bias{Outcome: OutcomeDirectional, Currency: DirectionDown, Asset: DirectionUp},
		},
		{
			name:  "jobless claims drop is currency positive",
			event: "Initial Jobless Claims", actual: f(210), forecast: f(230),
			want: Bias{Outcome: OutcomeDirectional, Currency: DirectionUp, Asset: DirectionDown},
		},
		{
			name:  "inverse match is case-insensitive",
			event: "TRADE DEFICIT q/q", actual: f(60), forecast: f(50),
			want: Bias{Outcome: OutcomeDirectional, Currency: DirectionDown, Asset: DirectionUp},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.event, tt.actual, tt.forecast)
			if got != tt.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tt.event, got, tt.want)
			}
		})
	}
}

func TestClassifyNeutral(t *testing.T) {
	t.Parallel()

	if got := Classify("Nonfarm Payrolls", nil, f(180)); got.Outcome != OutcomeUnclear {
		t.Fatalf("missing actual: outcome = %v, want unclear", got.Outcome)
	}
	if got := Classify("Nonfarm Payrolls", f(200), nil); got.Outcome != OutcomeUnclear {
		t.Fatalf("missing forecast: outcome = %v, want unclear", got.Outcome)
	}

	// An exact match is neutral regardless of event name, inverse or not.
	for _, name := range []string{"CPI m/m", "Unemployment Rate"} {
		got := Classify(name, f(100), f(100))
		if got.Outcome != OutcomeMatched {
			t.Fatalf("Classify(%q, 100, 100) outcome = %v, want matched", name, got.Outcome)
		}
		if got.Currency != DirectionNone || got.Asset != DirectionNone {
			t.Fatalf("matched outcome carried directions: %+v", got)
		}
	}
}
