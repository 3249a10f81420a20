package simulator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
)

type memorySink struct {
	mu   sync.Mutex
	recs []Record
}

func (m *memorySink) SaveRecord(runID string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

type memoryPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (m *memoryPublisher) Publish(subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *memoryPublisher) count(subject string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

func smallFixtures() ([]*persona.Profile, []scenario.Scenario) {
	profiles := []*persona.Profile{
		{ID: "a", Name: "Agreeable", SystemPrompt: "An agreeable shopper."},
		{ID: "b", Name: "Grumpy", SystemPrompt: "A grumpy shopper."},
	}
	scenarios := []scenario.Scenario{
		{ID: "s1", Name: "One", Text: "Scenario one text"},
		{ID: "s2", Name: "Two", Text: "Scenario two text"},
	}
	return profiles, scenarios
}

func TestRunProducesFullCrossProduct(t *testing.T) {
	profiles := persona.DefaultProfiles()
	scenarios := scenario.Defaults()

	sim, err := New(profiles, scenarios, Options{MockMode: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := len(profiles) * len(scenarios)
	if len(res.Records) != want {
		t.Fatalf("got %d records, want %d", len(res.Records), want)
	}
	if res.RunID == "" {
		t.Error("run id is empty")
	}

	seen := make(map[string]bool)
	for i, rec := range res.Records {
		key := rec.PersonaID + "/" + rec.ScenarioID
		if seen[key] {
			t.Errorf("duplicate record key %s", key)
		}
		seen[key] = true

		// Persona-major order: all scenarios for one persona before the next.
		wantPersona := profiles[i/len(scenarios)]
		wantScenario := scenarios[i%len(scenarios)]
		if rec.PersonaID != wantPersona.ID || rec.ScenarioID != wantScenario.ID {
			t.Errorf("record %d = (%s, %s), want (%s, %s)",
				i, rec.PersonaID, rec.ScenarioID, wantPersona.ID, wantScenario.ID)
		}
	}
}

func TestMockRunsAreDeterministic(t *testing.T) {
	run := func() *Result {
		sim, err := New(persona.DefaultProfiles(), scenario.Defaults(), Options{MockMode: true})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		res, err := sim.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return res
	}

	first, second := run(), run()
	if first.RunID == second.RunID {
		t.Error("run ids must be unique per run")
	}
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		if a.Decision != b.Decision || a.Response != b.Response {
			t.Errorf("record %d differs between identical mock runs", i)
		}
	}
}

func TestAlwaysRejectMockTemplate(t *testing.T) {
	profiles := persona.DefaultProfiles()
	// Mainstream Shopper normally accepts; pin it to a rejecting script.
	profiles[0].MockResponse = "DECISION: No\nREASONING: I am not buying anything today."

	sim, err := New(profiles, scenario.Defaults(), Options{MockMode: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	count := 0
	for _, rec := range res.Records {
		if rec.PersonaID != profiles[0].ID {
			continue
		}
		count++
		if rec.Decision != decision.Reject {
			t.Errorf("scenario %s: decision = %q, want reject", rec.ScenarioID, rec.Decision)
		}
	}
	if count != len(scenario.Defaults()) {
		t.Errorf("expected %d records for the pinned persona, got %d", len(scenario.Defaults()), count)
	}
}

func TestSinglePersonaSingleScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.json")
	doc := `{"p1": {"name": "Cash Customer", "prompt": "I pay upfront with boleto."}}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := persona.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	scenarios := []scenario.Scenario{{ID: "s1", Name: "Bulk discount", Text: "10% discount on bulk order"}}
	sim, err := New(store.Profiles(), scenarios, Options{MockMode: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	if res.Records[0].PersonaID != "p1" {
		t.Errorf("persona id = %q, want p1", res.Records[0].PersonaID)
	}
}

func TestProviderFailureKeepsBatchGoing(t *testing.T) {
	profiles, scenarios := smallFixtures()
	p := provider.Func(func(ctx context.Context, req provider.Request) (string, error) {
		if strings.Contains(req.System, "grumpy") && strings.Contains(req.User, "Scenario two") {
			return "", errors.New("simulated rate limit")
		}
		return "DECISION: Yes\nREASONING: Seems fine.", nil
	})

	sim, err := New(profiles, scenarios, Options{Provider: p})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(res.Records))
	}
	for _, rec := range res.Records {
		if rec.PersonaID == "b" && rec.ScenarioID == "s2" {
			if !rec.Failed() {
				t.Error("expected the failing pair to be recorded as failed")
			}
			if rec.Decision != decision.Unclear {
				t.Errorf("failed record decision = %q, want unclear", rec.Decision)
			}
			if !strings.Contains(rec.Err, "simulated rate limit") {
				t.Errorf("record error = %q", rec.Err)
			}
			continue
		}
		if rec.Failed() {
			t.Errorf("record (%s, %s) unexpectedly failed: %s", rec.PersonaID, rec.ScenarioID, rec.Err)
		}
		if rec.Decision != decision.Accept {
			t.Errorf("record (%s, %s) decision = %q", rec.PersonaID, rec.ScenarioID, rec.Decision)
		}
	}
}

func TestParallelOrderMatchesSequential(t *testing.T) {
	runWith := func(workers int) *Result {
		sim, err := New(persona.DefaultProfiles(), scenario.Defaults(), Options{
			MockMode: true,
			Workers:  workers,
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		res, err := sim.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return res
	}

	sequential, parallel := runWith(1), runWith(4)
	if len(sequential.Records) != len(parallel.Records) {
		t.Fatalf("record counts differ: %d vs %d", len(sequential.Records), len(parallel.Records))
	}
	for i := range sequential.Records {
		a, b := sequential.Records[i], parallel.Records[i]
		if a.PersonaID != b.PersonaID || a.ScenarioID != b.ScenarioID || a.Decision != b.Decision {
			t.Errorf("record %d differs: (%s,%s,%s) vs (%s,%s,%s)",
				i, a.PersonaID, a.ScenarioID, a.Decision, b.PersonaID, b.ScenarioID, b.Decision)
		}
	}
}

func TestRateLimitedRunCompletes(t *testing.T) {
	sim, err := New(persona.DefaultProfiles(), scenario.Defaults(), Options{
		MockMode: true,
		Workers:  3,
		RPS:      500,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := 7 * 6; len(res.Records) != want {
		t.Errorf("got %d records, want %d", len(res.Records), want)
	}
}

func TestSinkAndEventsSeeEveryRecord(t *testing.T) {
	profiles, scenarios := smallFixtures()
	sink := &memorySink{}
	events := &memoryPublisher{}

	sim, err := New(profiles, scenarios, Options{
		MockMode: true,
		Sink:     sink,
		Events:   events,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sink.recs) != 4 {
		t.Errorf("sink saw %d records, want 4", len(sink.recs))
	}
	if got := events.count(SubjectRunStarted); got != 1 {
		t.Errorf("started events = %d", got)
	}
	if got := events.count(SubjectRunRecord); got != 4 {
		t.Errorf("record events = %d", got)
	}
	if got := events.count(SubjectRunCompleted); got != 1 {
		t.Errorf("completed events = %d", got)
	}
}

func TestInterruptionKeepsCompletedRecords(t *testing.T) {
	profiles, scenarios := smallFixtures()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	p := provider.Func(func(ctx context.Context, req provider.Request) (string, error) {
		calls++
		if calls == 3 {
			cancel()
			return "", ctx.Err()
		}
		return "DECISION: Yes\nREASONING: Fine.", nil
	})

	events := &memoryPublisher{}
	sim, err := New(profiles, scenarios, Options{Provider: p, Events: events})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := sim.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("kept %d records, want the 2 completed before the interrupt", len(res.Records))
	}
	if got := events.count(SubjectRunFailed); got != 1 {
		t.Errorf("failed events = %d", got)
	}
}

func TestNewValidatesInputs(t *testing.T) {
	profiles, scenarios := smallFixtures()

	cases := []struct {
		name     string
		profiles []*persona.Profile
		scens    []scenario.Scenario
		opts     Options
	}{
		{"no personas", nil, scenarios, Options{MockMode: true}},
		{"no scenarios", profiles, nil, Options{MockMode: true}},
		{"live without provider", profiles, scenarios, Options{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.profiles, tc.scens, tc.opts); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

func TestRecordFailed(t *testing.T) {
	if (Record{}).Failed() {
		t.Error("empty record must not read as failed")
	}
	if !(Record{Err: "boom"}).Failed() {
		t.Error("record with error must read as failed")
	}
}
