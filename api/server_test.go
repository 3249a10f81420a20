package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/emilyhoughkovacs/blok-persona-clustering/api/handlers"
	"github.com/emilyhoughkovacs/blok-persona-clustering/broker"
	"github.com/emilyhoughkovacs/blok-persona-clustering/communication"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
	"github.com/emilyhoughkovacs/blok-persona-clustering/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	srv   *Server
	store *storage.Store
}

func newTestServer(t *testing.T, b *broker.Broker) *testServer {
	t.Helper()

	store, err := storage.Open(storage.Config{InMemory: true, DisableLogging: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv, err := NewServer(Options{
		Personas:  persona.FromProfiles(persona.DefaultProfiles()),
		Scenarios: scenario.Defaults(),
		Store:     store,
		Broker:    b,
		Defaults:  handlers.RunDefaults{Model: "gpt-4o-mini", MockMode: true},
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(w, req)

	payload := make(map[string]json.RawMessage)
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: undecodable body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, payload
}

// launchAndWait starts a mock batch and polls until the finished run lands
// in storage.
func (ts *testServer) launchAndWait(t *testing.T, body string) string {
	t.Helper()

	w, payload := ts.do(t, http.MethodPost, "/api/runs", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("launch status = %d, body %s", w.Code, w.Body.String())
	}
	var runID string
	if err := json.Unmarshal(payload["run_id"], &runID); err != nil || runID == "" {
		t.Fatalf("launch returned run_id %s", payload["run_id"])
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := ts.store.GetRun(runID); err == nil {
			return runID
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never finished", runID)
	return ""
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	w, payload := ts.do(t, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var personas int
	if err := json.Unmarshal(payload["personas"], &personas); err != nil || personas != 7 {
		t.Errorf("personas = %s", payload["personas"])
	}
}

func TestGetPersonasAndScenarios(t *testing.T) {
	ts := newTestServer(t, nil)

	_, payload := ts.do(t, http.MethodGet, "/api/personas", "")
	var profiles []persona.Profile
	if err := json.Unmarshal(payload["personas"], &profiles); err != nil {
		t.Fatalf("decode personas: %v", err)
	}
	if len(profiles) != 7 {
		t.Fatalf("personas = %d, want 7", len(profiles))
	}
	if profiles[0].Name != "Mainstream Shopper" {
		t.Errorf("first persona = %q", profiles[0].Name)
	}

	_, payload = ts.do(t, http.MethodGet, "/api/scenarios", "")
	var scenarios []scenario.Scenario
	if err := json.Unmarshal(payload["scenarios"], &scenarios); err != nil {
		t.Fatalf("decode scenarios: %v", err)
	}
	if len(scenarios) != 6 {
		t.Errorf("scenarios = %d", len(scenarios))
	}
}

func TestUnknownRunReturns404(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{
		"/api/runs/missing",
		"/api/runs/missing/records",
		"/api/runs/missing/summary",
	} {
		w, _ := ts.do(t, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
	}

	w, _ := ts.do(t, http.MethodDelete, "/api/runs/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("DELETE status = %d, want 404", w.Code)
	}
}

func TestLaunchMockRunEndToEnd(t *testing.T) {
	ts := newTestServer(t, nil)
	runID := ts.launchAndWait(t, `{"mock": true}`)

	w, payload := ts.do(t, http.MethodGet, "/api/runs/"+runID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get run status = %d", w.Code)
	}
	var run simulator.Result
	if err := json.Unmarshal(payload["run"], &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if len(run.Records) != 42 {
		t.Errorf("run has %d records, want 42", len(run.Records))
	}

	_, payload = ts.do(t, http.MethodGet, "/api/runs/"+runID+"/records", "")
	var records []simulator.Record
	if err := json.Unmarshal(payload["records"], &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 42 {
		t.Errorf("records endpoint returned %d, want 42", len(records))
	}

	_, payload = ts.do(t, http.MethodGet, "/api/runs/"+runID+"/summary", "")
	var summary struct {
		Total    int `json:"total"`
		Personas []struct {
			Total int `json:"total"`
		} `json:"personas"`
	}
	if err := json.Unmarshal(payload["summary"], &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 42 || len(summary.Personas) != 7 {
		t.Errorf("summary total = %d, personas = %d", summary.Total, len(summary.Personas))
	}

	_, payload = ts.do(t, http.MethodGet, "/api/runs", "")
	var runs []simulator.Result
	if err := json.Unmarshal(payload["runs"], &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != runID {
		t.Errorf("runs list = %+v", runs)
	}
}

func TestLiveRunWithoutProviderRejected(t *testing.T) {
	ts := newTestServer(t, nil)

	w, _ := ts.do(t, http.MethodPost, "/api/runs", `{"mock": false}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLaunchRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t, nil)

	w, _ := ts.do(t, http.MethodPost, "/api/runs", `{"mock": "yes please"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDeleteRunRemovesIt(t *testing.T) {
	ts := newTestServer(t, nil)
	runID := ts.launchAndWait(t, "")

	w, _ := ts.do(t, http.MethodDelete, "/api/runs/"+runID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w, _ = ts.do(t, http.MethodGet, "/api/runs/"+runID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestWebsocketStreamsRunEvents(t *testing.T) {
	b, err := broker.StartEmbedded()
	if err != nil {
		t.Fatalf("StartEmbedded failed: %v", err)
	}
	t.Cleanup(b.Close)

	ts := newTestServer(t, b)
	httpSrv := httptest.NewServer(ts.srv.Router())
	t.Cleanup(httpSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	// Registration is asynchronous; launch only once the client is in the
	// broadcast set, or the first events race past it.
	regDeadline := time.Now().Add(2 * time.Second)
	for ts.srv.manager.ClientCount() == 0 {
		if time.Now().After(regDeadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ts.launchAndWait(t, `{"mock": true}`)

	counts := make(map[string]int)
	deadline := time.Now().Add(5 * time.Second)
	for counts[communication.EventRunCompleted] == 0 && time.Now().Before(deadline) {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event communication.WSEvent
		if err := client.ReadJSON(&event); err != nil {
			t.Fatalf("read failed after %v events: %v", counts, err)
		}
		counts[event.Type]++
	}

	if counts[communication.EventRunStarted] != 1 {
		t.Errorf("started events = %d", counts[communication.EventRunStarted])
	}
	if counts[communication.EventAgentDecision] != 42 {
		t.Errorf("decision events = %d, want 42", counts[communication.EventAgentDecision])
	}
	if counts[communication.EventRunCompleted] != 1 {
		t.Errorf("completed events = %d", counts[communication.EventRunCompleted])
	}
}
