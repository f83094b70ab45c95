package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		htmlContent string
		statusCode  int
		wantError   bool
	}{
		{
			name:        "successful fetch",
			htmlContent: page(),
			statusCode:  http.StatusOK,
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusNotFound,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "spbu-timetable") {
					t.Errorf("User-Agent = %q, should contain 'spbu-timetable'", userAgent)
				}

				cookie, err := r.Cookie(CultureCookie)
				if err != nil || cookie.Value != "ru" {
					t.Errorf("expected _culture=ru cookie, got %v (%v)", cookie, err)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			s := New(Options{TLSVerify: true})
			doc, err := s.Fetch(context.Background(), server.URL)

			if tt.wantError {
				if err == nil {
					t.Error("Fetch() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() unexpected error: %v", err)
			}
			if doc.Find("div.panel-group").Length() != 1 {
				t.Error("expected the fetched document to contain the week container")
			}
		})
	}
}

func TestFetch_TLSVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page()))
	}))
	defer server.Close()

	if _, err := New(Options{TLSVerify: true}).Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected certificate error with verification enabled")
	}

	if _, err := New(Options{TLSVerify: false}).Fetch(context.Background(), server.URL); err != nil {
		t.Errorf("expected fetch to succeed without verification, got %v", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(page()))
	}))
	defer server.Close()

	s := New(Options{TLSVerify: true, Timeout: 20 * time.Millisecond})
	if _, err := s.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected timeout error")
	}
}

func TestScrape(t *testing.T) {
	html := page(day("Понедельник, 3 марта", lesson(normalTime, normalSubject, inlineVenue, singleLecturer)))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	defer server.Close()

	schedule, err := New(Options{TLSVerify: true}).Scrape(context.Background(), server.URL, testContext())
	if err != nil {
		t.Fatalf("Scrape() unexpected error: %v", err)
	}
	if schedule.WeekStart != "2025-03-03" || len(schedule.Events) != 1 {
		t.Errorf("Scrape() = week %q with %d events, want 2025-03-03 with 1", schedule.WeekStart, len(schedule.Events))
	}
}

func TestScrape_StructureError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Страница не найдена</body></html>"))
	}))
	defer server.Close()

	_, err := New(Options{TLSVerify: true}).Scrape(context.Background(), server.URL, testContext())
	if err == nil || !strings.Contains(err.Error(), "unexpected page structure") {
		t.Errorf("expected structure error, got %v", err)
	}
}
