package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/spbu-timetable/internal/config"
	"github.com/pfrederiksen/spbu-timetable/internal/filter"
)

func fixedNow() time.Time {
	return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/week.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return data
}

// timetableServer serves body for every request and records the last path.
func timetableServer(t *testing.T, body []byte, lastPath *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastPath != nil {
			*lastPath = r.URL.Path
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(fixedNow)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_TextReport(t *testing.T) {
	var path string
	server := timetableServer(t, loadFixture(t), &path)

	out, _, err := execute(t, "--base-url", server.URL+"/Primary", "--id", "303104", "--date", "2025-03-03", "--tz", "Europe/Moscow")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if path != "/Primary/303104/2025-03-03" {
		t.Errorf("requested path = %q", path)
	}

	for _, want := range append([]string{
		"Timetable for 7 days starting 2025-03-03",
		"2025-03-03 10:00:00",
		"1:22:00",
		"Алгебра",
		"ММ  ауд. 405",
		"Смирнова А. В., Кузнецов Б. Г.",
	}, Columns...) {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCmd_InvalidDate(t *testing.T) {
	_, _, err := execute(t, "--date", "03.03.2025")
	if !errors.Is(err, config.ErrDateFormat) {
		t.Errorf("Execute() error = %v, want ErrDateFormat", err)
	}
}

func TestRootCmd_NoEvents(t *testing.T) {
	body := []byte(`<html><body><a id="week" data-weekmonday="2025-03-03"></a><div class="panel-group">
</div></body></html>`)
	server := timetableServer(t, body, nil)

	out, _, err := execute(t, "--base-url", server.URL, "--id", "42")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "No events found") || !strings.Contains(out, server.URL+"/42/") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRootCmd_ExtractionErrorLogged(t *testing.T) {
	server := timetableServer(t, []byte("<html><body>Ошибка</body></html>"), nil)

	_, stderr, err := execute(t, "--base-url", server.URL)
	if err == nil {
		t.Fatal("expected error for page without timetable")
	}
	if !strings.Contains(stderr, "Timetable run failed") {
		t.Errorf("expected error log line, got %q", stderr)
	}
}

func TestRootCmd_JSONWithFilterAndSort(t *testing.T) {
	server := timetableServer(t, loadFixture(t), nil)

	out, _, err := execute(t, "--base-url", server.URL, "--format", "json", "--type", "практическое", "--sort", "title")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result struct {
		WeekStart  string `json:"week_start"`
		EventCount int    `json:"event_count"`
		Events     []struct {
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	if result.WeekStart != "2025-03-03" || result.EventCount != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Events[0].Title != "Английский язык" || result.Events[1].Title != "Физика" {
		t.Errorf("events not sorted by title: %+v", result.Events)
	}
}

func TestRootCmd_ICS(t *testing.T) {
	server := timetableServer(t, loadFixture(t), nil)

	out, _, err := execute(t, "--base-url", server.URL, "--format", "ics")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 5 {
		t.Errorf("expected 5 VEVENTs, got %d", got)
	}
}

func TestRootCmd_VerboseMetrics(t *testing.T) {
	server := timetableServer(t, loadFixture(t), nil)

	_, stderr, err := execute(t, "--base-url", server.URL, "--format", "json", "--verbose")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"Run metrics", "lessons.cancelled", "Skipping cancelled lesson"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q", want)
		}
	}
}

// reversedWeek has its lessons out of start order.
const reversedWeek = `<html><body><a id="week" data-weekmonday="2025-03-03"></a>
<div class="panel-group">
  <div class="panel">
    <div class="panel-heading"><h4>Понедельник, 3 марта</h4></div>
    <ul>
      <li>
        <span title="Время">15:25–17:00</span>
        <span title="Предмет">Физика, лекция</span>
        <span title="Места проведения занятия">Онлайн</span>
        <span title="Преподаватели"><a>Петров П. П.</a></span>
      </li>
      <li>
        <span title="Время">10:00–11:35</span>
        <span title="Предмет">Алгебра, лекция</span>
        <span title="Места проведения занятия">Онлайн</span>
        <span title="Преподаватели"><a>Иванов И. И.</a></span>
      </li>
    </ul>
  </div>
</div></body></html>`

func eventTitles(t *testing.T, out string) []string {
	t.Helper()
	var result struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	var titles []string
	for _, evt := range result.Events {
		titles = append(titles, evt.Title)
	}
	return titles
}

func TestRootCmd_SortOrder(t *testing.T) {
	server := timetableServer(t, []byte(reversedWeek), nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"page order by default", nil, "Физика|Алгебра"},
		{"start on request", []string{"--sort", "start"}, "Алгебра|Физика"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--base-url", server.URL, "--format", "json"}, tt.args...)
			out, _, err := execute(t, args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := strings.Join(eventTitles(t, out), "|"); got != tt.want {
				t.Errorf("titles = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRootCmd_LogLevel(t *testing.T) {
	server := timetableServer(t, loadFixture(t), nil)

	_, stderr, err := execute(t, "--base-url", server.URL, "--format", "json", "--log-level", "info")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stderr, "Fetched timetable page") {
		t.Errorf("expected info log line, got %q", stderr)
	}
	if strings.Contains(stderr, "Skipping cancelled lesson") {
		t.Errorf("debug line logged at info level: %q", stderr)
	}

	if _, _, err := execute(t, "--log-level", "chatty"); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func runOptionsFor(baseURL string, wait func(context.Context, string, func()) error) *runOptions {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	return &runOptions{cfg: cfg, filter: filter.NewFilter(), now: fixedNow, wait: wait}
}

func TestRun_InterruptedWait(t *testing.T) {
	errInterrupted := errors.New("user aborted")
	var stdout, stderr bytes.Buffer

	opts := runOptionsFor("http://127.0.0.1:0", func(context.Context, string, func()) error {
		return errInterrupted
	})

	err := run(context.Background(), &stdout, &stderr, opts)
	if !errors.Is(err, errInterrupted) {
		t.Fatalf("run() error = %v, want interruption", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be printed, got %q", stdout.String())
	}
}

func TestRun_WaitWithoutAction(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := runOptionsFor("http://127.0.0.1:0", func(context.Context, string, func()) error {
		return nil
	})

	if err := run(context.Background(), &stdout, &stderr, opts); err == nil {
		t.Fatal("expected error when the fetch never ran")
	}
}

func TestRun_WaitRunsFetch(t *testing.T) {
	server := timetableServer(t, loadFixture(t), nil)
	var stdout, stderr bytes.Buffer

	var title string
	opts := runOptionsFor(server.URL, func(_ context.Context, got string, action func()) error {
		title = got
		action()
		return nil
	})

	if err := run(context.Background(), &stdout, &stderr, opts); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if title != "Fetching timetable for group 303104..." {
		t.Errorf("wait title = %q", title)
	}
	if !strings.Contains(stdout.String(), "Timetable for 7 days starting 2025-03-03") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}
