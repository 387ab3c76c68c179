package forexfactory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fxnewsbot/internal/config"
	logx "fxnewsbot/pkg/logx"
)

const samplePage = `<html><body>
<table class="calendar__table">
<tr class="calendar__row" data-eventid="12345">
  <td class="calendar__time">8:30am</td>
  <td class="calendar__currency">USD</td>
  <td class="calendar__impact"><span class="icon icon--ff-impact-red high"></span></td>
  <td class="calendar__event">Non-Farm Employment Change</td>
  <td class="calendar__actual">210K</td>
  <td class="calendar__forecast">180K</td>
  <td class="calendar__previous">175K</td>
</tr>
<tr class="calendar__row">
  <td class="calendar__time">10:00am</td>
  <td class="calendar__currency">EUR</td>
  <td class="calendar__impact"><span class="icon medium"></span></td>
  <td class="calendar__event">German ZEW</td>
  <td class="calendar__actual"></td>
  <td class="calendar__forecast">12.1</td>
  <td class="calendar__previous">10.4</td>
</tr>
<tr class="calendar__row calendar__row--day-breaker">
  <td colspan="7">Friday</td>
</tr>
</table>
</body></html>`

func newTestClient(url string) *Client {
	return New(Config{URL: url, UserAgent: "test-agent", Timeout: 5 * time.Second}, logx.Nop())
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	c := New(Config{}, logx.Nop())
	if c.url != config.DefaultCalendarURL+"?day=today" {
		t.Fatalf("url = %q", c.url)
	}
	if c.ua != config.DefaultCalendarUA {
		t.Fatalf("ua = %q", c.ua)
	}
	if c.httpc.Timeout != config.DefaultRequestTimeout {
		t.Fatalf("timeout = %v", c.httpc.Timeout)
	}
}

func TestFetchParsesRows(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Query().Get("day") != "today" {
			t.Errorf("missing day=today query, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != "test-agent" {
		t.Fatalf("user agent = %q", gotUA)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	first := rows[0]
	if first.ID != "12345" || first.Currency != "USD" || first.Event != "Non-Farm Employment Change" {
		t.Fatalf("first row = %+v", first)
	}
	if first.Actual != "210K" || first.Forecast != "180K" || first.Previous != "175K" {
		t.Fatalf("first row values = %+v", first)
	}
	if first.ImpactClass != "icon icon--ff-impact-red high" {
		t.Fatalf("impact class = %q", first.ImpactClass)
	}

	second := rows[1]
	if second.ID != "" || second.Currency != "EUR" || second.Actual != "" {
		t.Fatalf("second row = %+v", second)
	}

	// Day-breaker row has no cells; it comes back raw and empty and is left
	// for normalization to reject.
	if breaker := rows[2]; breaker.Currency != "" || breaker.Event != "" {
		t.Fatalf("breaker row = %+v", breaker)
	}
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFetchMissingTable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Checking your browser</body></html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFetchContextCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := newTestClient(srv.URL).Fetch(ctx); err == nil {
		t.Fatal("expected error on canceled context")
	}
}
