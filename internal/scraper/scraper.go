package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/spbu-timetable/internal/logger"
)

const (
	UserAgent     = "spbu-timetable/1.0 (github.com/pfrederiksen/spbu-timetable)"
	Timeout       = 30 * time.Second
	CultureCookie = "_culture"
	Culture       = "ru"
)

// Options configures the HTTP side of a Scraper.
type Options struct {
	TLSVerify bool
	Timeout   time.Duration
}

// Scraper handles fetching and parsing timetable pages
type Scraper struct {
	client *http.Client
}

// New creates a new Scraper instance
func New(opts Options) *Scraper {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = Timeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.TLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via --no-tls-verify
	}

	return &Scraper{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Fetch downloads url and parses it into a document.
func (s *Scraper) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.AddCookie(&http.Cookie{Name: CultureCookie, Value: Culture})

	started := time.Now()
	resp, err := s.client.Do(req)
	logger.RecordTiming("fetch", time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	logger.Info("Fetched timetable page", logger.Fields{"url": url, "status": resp.StatusCode})
	return doc, nil
}

// Scrape fetches url and extracts its schedule.
func (s *Scraper) Scrape(ctx context.Context, url string, ec ExtractContext) (*Schedule, error) {
	doc, err := s.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	schedule, err := Extract(NewNode(doc.Selection), ec)
	if err != nil {
		return nil, fmt.Errorf("extracting schedule: %w", err)
	}

	logger.SetGauge("events", float64(len(schedule.Events)))
	return schedule, nil
}
