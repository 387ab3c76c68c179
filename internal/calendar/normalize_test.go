package calendar

import "testing"

func TestNormalizeFiltering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		row  RawRow
		want SkipReason
	}{
		{
			name: "currency mismatch",
			row:  RawRow{Currency: "EUR", ImpactClass: "icon--ff-impact-red high", Event: "ECB Rate"},
			want: SkipCurrency,
		},
		{
			name: "low impact",
			row:  RawRow{Currency: "USD", ImpactClass: "icon--ff-impact-yel low", Event: "Speech"},
			want: SkipImpact,
		},
		{
			name: "unmarked impact",
			row:  RawRow{Currency: "USD", Event: "Holiday"},
			want: SkipImpact,
		},
		{
			name: "empty row",
			row:  RawRow{},
			want: SkipMalformed,
		},
		{
			name: "retained high",
			row:  RawRow{Currency: "USD", ImpactClass: "high", Event: "CPI m/m"},
			want: SkipNone,
		},
		{
			name: "retained medium",
			row:  RawRow{Currency: "USD", ImpactClass: "icon medium", Event: "Factory Orders"},
			want: SkipNone,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, skip := Normalize(tt.row, "USD")
			if skip != tt.want {
				t.Fatalf("skip = %v, want %v", skip, tt.want)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()
	row := RawRow{Currency: "USD", ImpactClass: "high", Event: "FOMC Statement"}
	ev, skip := Normalize(row, "USD")
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %v", skip)
	}
	if ev.ActualText != "-" || ev.ForecastText != "-" || ev.PreviousText != "-" {
		t.Fatalf("missing cells must default to %q: %+v", "-", ev)
	}
	if ev.Actual != nil || ev.Forecast != nil {
		t.Fatalf("numeric values must be nil when cells are absent: %+v", ev)
	}
	if ev.HasActual() || ev.HasForecast() {
		t.Fatal("defaulted texts must not count as published figures")
	}
	if ev.ID == "" {
		t.Fatal("fallback id must be derived when the native id is absent")
	}
}

func TestNormalizeValues(t *testing.T) {
	t.Parallel()
	row := RawRow{
		ID:          "137772",
		Time:        "8:30am",
		Currency:    "USD",
		ImpactClass: "icon--ff-impact-red high",
		Event:       "CPI m/m",
		Actual:      "0.4%",
		Forecast:    "0.3%",
		Previous:    "0.2%",
	}
	ev, skip := Normalize(row, "USD")
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %v", skip)
	}
	if ev.ID != "137772" {
		t.Fatalf("native id must win: %q", ev.ID)
	}
	if ev.Impact != ImpactHigh {
		t.Fatalf("impact = %v, want High", ev.Impact)
	}
	if ev.Actual == nil || *ev.Actual != 0.4 {
		t.Fatalf("actual = %v, want 0.4", ev.Actual)
	}
	if ev.Forecast == nil || *ev.Forecast != 0.3 {
		t.Fatalf("forecast = %v, want 0.3", ev.Forecast)
	}
	if !ev.HasActual() || !ev.HasForecast() {
		t.Fatal("published figures not detected")
	}
}

func TestNormalizeUnparseableActualKeepsEvent(t *testing.T) {
	t.Parallel()
	row := RawRow{Currency: "USD", ImpactClass: "high", Event: "Fed Chair Speaks", Actual: "Hawkish"}
	ev, skip := Normalize(row, "USD")
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %v", skip)
	}
	if ev.Actual != nil {
		t.Fatalf("unparseable actual must stay nil: %v", *ev.Actual)
	}
	if ev.ActualText != "Hawkish" {
		t.Fatalf("display text must be preserved verbatim: %q", ev.ActualText)
	}
}

func TestFallbackIDDistinguishesTimes(t *testing.T) {
	t.Parallel()
	a := FallbackID("Crude Oil Inventories", "10:30am", "USD")
	b := FallbackID("Crude Oil Inventories", "4:00pm", "USD")
	if a == b {
		t.Fatal("same-named events at different times must not collide")
	}
	if a != FallbackID("Crude Oil Inventories", "10:30am", "USD") {
		t.Fatal("fallback id must be deterministic")
	}
}
