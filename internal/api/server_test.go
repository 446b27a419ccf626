package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/autofx/autofx/internal/events"
	"github.com/autofx/autofx/internal/logging"
	"github.com/autofx/autofx/internal/process"
	"github.com/autofx/autofx/internal/scripts"
	"github.com/autofx/autofx/internal/workspace"
)

var testScripts = map[string]string{
	"greet":   `echo "hello $1"; echo '<<PROGRESS>>{"profile":"p","current":1,"total":2}<<PROGRESS>>'`,
	"wait":    `trap 'exit 0' TERM; while :; do sleep 0.05; done`,
	"prompt":  `read answer; echo "answer=$answer"`,
	"profile": `echo "Perfis salvos em: output/alice/profile.json"`,
}

type fakeCatalog struct{}

func (fakeCatalog) List() []scripts.Script {
	return []scripts.Script{
		{Name: "greet", File: "greet.py", Input: scripts.InputLines, Description: "Say hello"},
		{Name: "wait", File: "wait.py", Input: scripts.InputNone},
	}
}

type fakeWorkspace struct {
	profiles []string
	opened   []string
}

func (w *fakeWorkspace) Profiles() ([]string, error) { return w.profiles, nil }

func (w *fakeWorkspace) DeleteProfile(name string) error {
	if strings.Contains(name, "..") {
		return workspace.ErrInvalidName
	}
	for i, p := range w.profiles {
		if p == name {
			w.profiles = append(w.profiles[:i], w.profiles[i+1:]...)
			return nil
		}
	}
	return workspace.ErrProfileNotFound
}

func (w *fakeWorkspace) OpenFolder(_ context.Context, path string) (string, error) {
	if path == "missing" {
		return "", workspace.ErrFolderNotFound
	}
	w.opened = append(w.opened, path)
	return "/backend/" + path, nil
}

type testEnv struct {
	server    *httptest.Server
	sup       *process.Supervisor
	hub       *events.Hub
	bus       *events.Bus
	workspace *fakeWorkspace
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.New()
	hub := events.NewHub(bus, events.HubOptions{Logger: logger})
	sup := process.NewSupervisor(process.Options{
		Resolver: process.ResolverFunc(func(script, input string) (process.Command, error) {
			body, ok := testScripts[script]
			if !ok {
				return process.Command{}, process.NewError(process.CodeScriptNotFound, "script "+script+" not found", nil)
			}
			return process.Command{Path: "sh", Args: []string{"-c", body, script, input}}, nil
		}),
		Broadcaster: hub,
		StopGrace:   500 * time.Millisecond,
		Logger:      logger,
		OnStateChange: func(id, script string, oldState, newState process.State) {
			bus.Publish(events.ProcessStateEvent{
				ProcessID: id,
				Script:    script,
				OldState:  string(oldState),
				NewState:  string(newState),
			})
		},
	})

	ws := &fakeWorkspace{profiles: []string{"alice", "bob"}}
	opts := &Options{
		Supervisor: sup,
		Hub:        hub,
		Bus:        bus,
		Catalog:    fakeCatalog{},
		Workspace:  ws,
	}
	if mutate != nil {
		mutate(opts)
	}

	ts := httptest.NewServer(NewServer(opts).Handler())
	t.Cleanup(func() {
		sup.StopAll()
		hub.CloseAll()
		ts.Close()
	})
	return &testEnv{server: ts, sup: sup, hub: hub, bus: bus, workspace: ws}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%s %s returned non-JSON body %q", method, path, data)
		}
	}
	return resp.StatusCode, decoded
}

type sseEvent struct {
	name string
	data map[string]any
}

// subscribe opens an SSE stream and parses events into a channel. Headers
// arrive with the first event, so the request runs in the background.
func (e *testEnv) subscribe(t *testing.T, path string) <-chan sseEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out := make(chan sseEvent, 64)
	go func() {
		defer close(out)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.server.URL+path, nil)
		if err != nil {
			t.Error(err)
			return
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				t.Errorf("failed to connect to %s: %v", path, err)
			}
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
			return
		}
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
			t.Errorf("Content-Type = %q, want text/event-stream", ct)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		name := "message"
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				var data map[string]any
				if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &data); err != nil {
					continue
				}
				select {
				case out <- sseEvent{name: name, data: data}:
				case <-ctx.Done():
					return
				}
			case line == "":
				name = "message"
			}
		}
	}()
	return out
}

func next(t *testing.T, ch <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event stream closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return sseEvent{}
}

func TestExecuteStreamsOutput(t *testing.T) {
	env := newTestEnv(t, nil)
	stream := env.subscribe(t, "/api/events")

	greeting := next(t, stream)
	if greeting.name != "info" || greeting.data["message"] != events.Greeting {
		t.Fatalf("first event = %+v, want greeting", greeting)
	}

	status, body := env.do(t, http.MethodPost, "/api/execute", `{"script":"greet","input":"world","processId":"g1"}`)
	if status != http.StatusOK {
		t.Fatalf("execute status = %d, body %v", status, body)
	}
	if body["success"] != true || body["processId"] != "g1" || body["message"] != "Script started" {
		t.Errorf("execute body = %v", body)
	}

	var names []string
	for {
		ev := next(t, stream)
		if ev.data["processId"] != "g1" {
			t.Errorf("event for wrong process: %+v", ev)
		}
		if ev.name != ev.data["type"] {
			t.Errorf("event name %q does not match type %v", ev.name, ev.data["type"])
		}
		names = append(names, ev.name)
		switch ev.name {
		case "stdout":
			if ev.data["output"] != "hello world" {
				t.Errorf("stdout = %v", ev.data["output"])
			}
		case "progress":
			if ev.data["profile"] != "p" || ev.data["current"] != float64(1) || ev.data["total"] != float64(2) {
				t.Errorf("progress = %v", ev.data)
			}
		}
		if ev.name == "close" {
			if ev.data["code"] != float64(0) {
				t.Errorf("close code = %v", ev.data["code"])
			}
			break
		}
	}
	if got := strings.Join(names, ","); got != "stdout,progress,close" {
		t.Errorf("event order = %s", got)
	}
}

func TestExecuteOutputFolder(t *testing.T) {
	env := newTestEnv(t, nil)
	stream := env.subscribe(t, "/api/events")
	next(t, stream)

	if status, body := env.do(t, http.MethodPost, "/api/execute", `{"script":"profile","processId":"p1"}`); status != http.StatusOK {
		t.Fatalf("execute status = %d, body %v", status, body)
	}

	var folder string
	for {
		ev := next(t, stream)
		if ev.name == "output_folder" {
			folder, _ = ev.data["path"].(string)
		}
		if ev.name == "close" {
			break
		}
	}
	if folder != "output/alice" {
		t.Errorf("output folder = %q, want output/alice", folder)
	}
}

func TestProcessErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	if status, _ := env.do(t, http.MethodPost, "/api/execute", `{"script":"wait","processId":"w1"}`); status != http.StatusOK {
		t.Fatalf("execute status = %d", status)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown script", http.MethodPost, "/api/execute", `{"script":"nope"}`, http.StatusNotFound},
		{"blank script", http.MethodPost, "/api/execute", `{"script":"  "}`, http.StatusBadRequest},
		{"duplicate id", http.MethodPost, "/api/execute", `{"script":"wait","processId":"w1"}`, http.StatusConflict},
		{"stop unknown", http.MethodPost, "/api/stop", `{"processId":"ghost"}`, http.StatusNotFound},
		{"input unknown", http.MethodPost, "/api/send-input", `{"processId":"ghost","input":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.body)
			if status != tt.want {
				t.Errorf("status = %d, want %d (body %v)", status, tt.want, body)
			}
		})
	}
}

func TestStopAndSendInput(t *testing.T) {
	env := newTestEnv(t, nil)
	stream := env.subscribe(t, "/api/events")
	next(t, stream)

	env.do(t, http.MethodPost, "/api/execute", `{"script":"prompt","processId":"q1"}`)
	env.do(t, http.MethodPost, "/api/execute", `{"script":"wait","processId":"w1"}`)

	status, body := env.do(t, http.MethodGet, "/api/processes", "")
	if status != http.StatusOK || body["count"] != float64(2) {
		t.Fatalf("processes = %d %v", status, body)
	}

	if status, body := env.do(t, http.MethodPost, "/api/send-input", `{"processId":"q1","input":"yes"}`); status != http.StatusOK {
		t.Fatalf("send-input status = %d, body %v", status, body)
	}
	if status, body := env.do(t, http.MethodPost, "/api/stop", `{"processId":"w1"}`); status != http.StatusOK || body["success"] != true {
		t.Fatalf("stop = %d %v", status, body)
	}

	closed := map[string]bool{}
	var answer string
	for len(closed) < 2 {
		ev := next(t, stream)
		id, _ := ev.data["processId"].(string)
		switch ev.name {
		case "stdout":
			if id == "q1" {
				answer, _ = ev.data["output"].(string)
			}
		case "close":
			closed[id] = true
		}
	}
	if answer != "answer=yes" {
		t.Errorf("q1 output = %q", answer)
	}
}

func TestProcessStateStream(t *testing.T) {
	env := newTestEnv(t, nil)
	stream := env.subscribe(t, "/api/processes/stream")
	time.Sleep(200 * time.Millisecond)

	env.do(t, http.MethodPost, "/api/execute", `{"script":"greet","processId":"s1"}`)

	var states []string
	for len(states) < 3 {
		ev := next(t, stream)
		if ev.name != "state" || ev.data["processId"] != "s1" {
			t.Fatalf("unexpected event %+v", ev)
		}
		states = append(states, ev.data["new_state"].(string))
	}
	if got := strings.Join(states, ","); got != "starting,running,exited" {
		t.Errorf("states = %s", got)
	}
}

func TestScriptsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, http.MethodGet, "/api/scripts", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	list, _ := body["scripts"].([]any)
	if len(list) != 2 || body["count"] != float64(2) {
		t.Fatalf("scripts = %v", body)
	}
	first := list[0].(map[string]any)
	if first["name"] != "greet" || first["input"] != "lines" || first["description"] != "Say hello" {
		t.Errorf("first script = %v", first)
	}
}

func TestWorkspaceEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, http.MethodGet, "/api/profiles", "")
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("profiles = %d %v", status, body)
	}
	if profiles, _ := body["profiles"].([]any); len(profiles) != 2 {
		t.Errorf("profiles = %v", body["profiles"])
	}

	if status, _ := env.do(t, http.MethodDelete, "/api/profiles/alice", ""); status != http.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if status, _ := env.do(t, http.MethodDelete, "/api/profiles/alice", ""); status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
	if status, _ := env.do(t, http.MethodDelete, "/api/profiles/..x", ""); status != http.StatusBadRequest {
		t.Errorf("invalid delete status = %d, want 400", status)
	}

	status, body = env.do(t, http.MethodPost, "/api/open-folder", `{"folderPath":"output/alice"}`)
	if status != http.StatusOK || body["path"] != "/backend/output/alice" {
		t.Errorf("open-folder = %d %v", status, body)
	}
	if status, _ := env.do(t, http.MethodPost, "/api/open-folder", `{"folderPath":"missing"}`); status != http.StatusNotFound {
		t.Errorf("open missing status = %d, want 404", status)
	}
}

func TestBasicAuth(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.AuthUsername = "admin"
		o.AuthPassword = "secret"
	})

	if status, _ := env.do(t, http.MethodGet, "/api/health", ""); status != http.StatusOK {
		t.Errorf("health without auth = %d, want 200", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/api/processes", ""); status != http.StatusUnauthorized {
		t.Errorf("processes without auth = %d, want 401", status)
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/processes", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("processes with auth = %d, want 200", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, env.server.URL+"/api/processes", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("processes with wrong password = %d, want 401", resp.StatusCode)
	}

	query := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	stream := env.subscribe(t, "/api/events?auth="+query)
	if ev := next(t, stream); ev.name != "info" {
		t.Errorf("first event = %+v", ev)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, env.server.URL+"/api/execute", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.PrometheusHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "autofx_process_running 0\n")
		})
	})

	status, body := env.do(t, http.MethodGet, "/api/health", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/version", "")
	if status != http.StatusOK || body["version"] == "" {
		t.Errorf("version = %d %v", status, body)
	}

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), "autofx_process_running") {
		t.Errorf("metrics body = %q", data)
	}
}

func TestMapProcessError(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		err  error
		want int
	}{
		{process.ErrNotFound, http.StatusNotFound},
		{process.ErrScriptNotFound, http.StatusNotFound},
		{process.ErrExists, http.StatusConflict},
		{process.ErrInvalidParams, http.StatusBadRequest},
		{process.ErrInputFailed, http.StatusInternalServerError},
		{process.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		mapped := s.mapProcessError(tt.err)
		var se interface{ GetStatus() int }
		if !errors.As(mapped, &se) {
			t.Fatalf("mapped error %T has no status", mapped)
		}
		if se.GetStatus() != tt.want {
			t.Errorf("%v -> %d, want %d", tt.err, se.GetStatus(), tt.want)
		}
	}
}

func TestLogStream(t *testing.T) {
	env := newTestEnv(t, nil)

	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	logging.SetLogCallback(func(entry logging.LogEntry) {
		env.bus.Publish(LogEntryToEvent(entry))
	})
	t.Cleanup(func() { logging.SetLogCallback(nil) })

	logger := logging.GetLogger("apitest")
	logger.Info("before connect")

	stream := env.subscribe(t, "/api/logs/stream")

	seen := map[string]int{}
	for seen["before connect"] == 0 {
		ev := next(t, stream)
		if ev.data["module"] == "apitest" {
			seen[ev.data["message"].(string)]++
		}
	}

	logger.Info("after connect", "process_id", "pg_1")
	for seen["after connect"] == 0 {
		ev := next(t, stream)
		if ev.name != "message" {
			t.Fatalf("event name = %q, want message", ev.name)
		}
		if ev.data["module"] != "apitest" {
			continue
		}
		seen[ev.data["message"].(string)]++
		if ev.data["message"] == "after connect" {
			attrs, _ := ev.data["attributes"].(map[string]any)
			if attrs["process_id"] != "pg_1" {
				t.Errorf("attributes = %v", ev.data["attributes"])
			}
			if seq, _ := ev.data["seq"].(float64); seq == 0 {
				t.Errorf("seq missing: %v", ev.data)
			}
		}
	}

	if seen["before connect"] != 1 {
		t.Errorf("history entry delivered %d times", seen["before connect"])
	}
}
