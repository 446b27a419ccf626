package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestHandlerExposesSupervisorMetrics(t *testing.T) {
	ProcessStarted("video_editor")
	ProcessExited("video_editor", 3, 1.5)
	ProcessLaunchFailed("broken_script")
	InputWritten(true)
	InputWritten(false)
	SetViewers(2)
	MessageBroadcast("stdout")
	MessageDropped()

	body := scrape(t)
	for _, want := range []string{
		`autofx_process_started_total{script="video_editor"}`,
		`autofx_process_exits_total{code="3",script="video_editor"}`,
		`autofx_process_running{script="video_editor"} 0`,
		`autofx_process_run_seconds_count{script="video_editor"}`,
		`autofx_process_launch_failures_total{script="broken_script"}`,
		`autofx_process_input_writes_total{result="error"}`,
		`autofx_events_viewers 2`,
		`autofx_events_broadcast_total{type="stdout"}`,
		`autofx_events_dropped_total`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}
