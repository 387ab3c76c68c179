// Package forexfactory scrapes the ForexFactory calendar page into raw
// calendar rows. It only extracts; filtering and normalization happen in the
// calendar package.
package forexfactory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"fxnewsbot/internal/calendar"
	"fxnewsbot/internal/config"
	logx "fxnewsbot/pkg/logx"
)

// ErrUnavailable marks transport failures and non-2xx responses. Callers
// treat the whole cycle as unavailable and retry on the next tick.
var ErrUnavailable = errors.New("calendar source unavailable")

type Config struct {
	// URL is the calendar page; empty means the ForexFactory calendar.
	// The "?day=today" query is appended when no query is present.
	URL string
	// UserAgent sent with requests; empty means a browser-like default
	// (the page serves a challenge to obvious bot agents).
	UserAgent string
	Timeout   time.Duration
}

type Client struct {
	url   string
	ua    string
	httpc *http.Client
	log   logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		u = config.DefaultCalendarURL
	}
	if !strings.Contains(u, "?") {
		u += "?day=today"
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = config.DefaultCalendarUA
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}
	return &Client{
		url:   u,
		ua:    ua,
		httpc: &http.Client{Timeout: timeout},
		log:   log,
	}
}

// Fetch downloads and parses the calendar page. Rows that cannot be parsed
// individually are skipped; a page-level failure returns ErrUnavailable.
func (c *Client) Fetch(ctx context.Context) ([]calendar.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrUnavailable, err)
	}

	table := doc.Find("table.calendar__table").First()
	if table.Length() == 0 {
		// Markup changed or a challenge page came back.
		return nil, fmt.Errorf("%w: calendar table not found", ErrUnavailable)
	}

	var rows []calendar.RawRow
	table.Find("tr.calendar__row").Each(func(_ int, tr *goquery.Selection) {
		row := calendar.RawRow{
			ID:       strings.TrimSpace(tr.AttrOr("data-eventid", "")),
			Time:     cellText(tr, "td.calendar__time"),
			Currency: cellText(tr, "td.calendar__currency"),
			Event:    cellText(tr, "td.calendar__event"),
			Actual:   cellText(tr, "td.calendar__actual"),
			Forecast: cellText(tr, "td.calendar__forecast"),
			Previous: cellText(tr, "td.calendar__previous"),
		}
		if span := tr.Find("td.calendar__impact span").First(); span.Length() > 0 {
			row.ImpactClass = span.AttrOr("class", "")
		}
		rows = append(rows, row)
	})

	if !c.log.IsZero() {
		c.log.Debug("calendar page fetched",
			logx.Int("rows", len(rows)),
			logx.String("url", c.url),
		)
	}
	return rows, nil
}

func cellText(tr *goquery.Selection, selector string) string {
	return strings.TrimSpace(tr.Find(selector).First().Text())
}
