// Package simulator runs the persona-by-scenario cross product and collects
// the resulting decision records.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/emilyhoughkovacs/blok-persona-clustering/agent"
	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
)

// RecordSink receives records as they are produced, so a long batch flushes
// incrementally instead of only at the end. A sink failure is logged, never
// fatal.
type RecordSink interface {
	SaveRecord(runID string, rec Record) error
}

// Publisher pushes run events to interested listeners. The NATS broker
// satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Options configures a batch run.
type Options struct {
	Model    string
	MockMode bool
	// Provider answers live calls. Required unless MockMode is set.
	Provider provider.Provider
	// Classifier parses replies. Defaults to decision.KeywordClassifier.
	Classifier decision.Classifier
	// Researcher, when set, enriches scenarios with web findings.
	Researcher *agent.Researcher
	// Workers bounds concurrent provider calls. 0 or 1 runs the batch
	// strictly sequentially.
	Workers int
	// RPS caps provider calls per second across all workers. 0 disables
	// the limiter.
	RPS float64
	// Sink, when set, receives every record as soon as it exists.
	Sink RecordSink
	// Events, when set, receives run lifecycle events.
	Events Publisher
}

// Simulator owns one agent per persona and a fixed scenario list. Agents
// are stateless, so a simulator can run any number of batches.
type Simulator struct {
	agents    []*agent.Agent
	scenarios []scenario.Scenario
	opts      Options
	limiter   *rate.Limiter
}

// New builds a simulator over the given profiles and scenarios. Profile
// order fixes the record order of every run.
func New(profiles []*persona.Profile, scenarios []scenario.Scenario, opts Options) (*Simulator, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("simulator needs at least one persona")
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("simulator needs at least one scenario")
	}
	if !opts.MockMode && opts.Provider == nil {
		return nil, fmt.Errorf("live mode needs a provider; pass one or enable mock mode")
	}

	agents := make([]*agent.Agent, 0, len(profiles))
	for _, p := range profiles {
		agents = append(agents, agent.New(p, agent.Options{
			Model:      opts.Model,
			MockMode:   opts.MockMode,
			Provider:   opts.Provider,
			Classifier: opts.Classifier,
			Researcher: opts.Researcher,
		}))
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &Simulator{
		agents:    agents,
		scenarios: scenarios,
		opts:      opts,
		limiter:   limiter,
	}, nil
}

// Agents returns the simulator's agents in persona order.
func (s *Simulator) Agents() []*agent.Agent {
	return s.agents
}

// Run executes the full cross product under a fresh run id and returns the
// collected records in deterministic persona-major order. On cancellation
// it returns the partial result alongside the error so completed calls are
// never lost.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	return s.RunWithID(ctx, uuid.New().String())
}

// RunWithID is Run with a caller-chosen run id, for callers that must hand
// out the id before the batch finishes.
func (s *Simulator) RunWithID(ctx context.Context, runID string) (*Result, error) {
	total := len(s.agents) * len(s.scenarios)
	res := &Result{
		RunID:     runID,
		Model:     s.opts.Model,
		MockMode:  s.opts.MockMode,
		Personas:  len(s.agents),
		Scenarios: len(s.scenarios),
		StartedAt: time.Now().UTC(),
		Records:   make([]Record, 0, total),
	}

	s.publish(SubjectRunStarted, RunEvent{
		RunID:     res.RunID,
		Model:     res.Model,
		MockMode:  res.MockMode,
		Personas:  res.Personas,
		Scenarios: res.Scenarios,
	})

	jobs := s.jobs()
	var err error
	if s.opts.Workers > 1 {
		err = s.runParallel(ctx, res, jobs)
	} else {
		err = s.runSequential(ctx, res, jobs)
	}
	res.FinishedAt = time.Now().UTC()

	if err != nil {
		s.publish(SubjectRunFailed, RunEvent{
			RunID:     res.RunID,
			Model:     res.Model,
			MockMode:  res.MockMode,
			Personas:  res.Personas,
			Scenarios: res.Scenarios,
			Records:   len(res.Records),
			Error:     err.Error(),
		})
		return res, fmt.Errorf("run %s interrupted after %d/%d records: %w", res.RunID, len(res.Records), total, err)
	}

	s.publish(SubjectRunCompleted, RunEvent{
		RunID:     res.RunID,
		Model:     res.Model,
		MockMode:  res.MockMode,
		Personas:  res.Personas,
		Scenarios: res.Scenarios,
		Records:   len(res.Records),
	})
	return res, nil
}

type job struct {
	idx      int
	agent    *agent.Agent
	scenario scenario.Scenario
}

// jobs lays out the cross product persona-major: every scenario for the
// first persona, then the next persona, and so on. The slot index pins each
// record's position in the final table regardless of completion order.
func (s *Simulator) jobs() []job {
	out := make([]job, 0, len(s.agents)*len(s.scenarios))
	for pi, ag := range s.agents {
		for si, sc := range s.scenarios {
			out = append(out, job{
				idx:      pi*len(s.scenarios) + si,
				agent:    ag,
				scenario: sc,
			})
		}
	}
	return out
}

func (s *Simulator) runSequential(ctx context.Context, res *Result, jobs []job) error {
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		rec, err := s.simulate(ctx, j.agent, j.scenario)
		if err != nil {
			return err
		}
		res.Records = append(res.Records, rec)
		s.flush(res.RunID, rec)
	}
	return nil
}

func (s *Simulator) runParallel(ctx context.Context, res *Result, jobs []job) error {
	type outcome struct {
		idx int
		rec Record
	}

	jobCh := make(chan job)
	outCh := make(chan outcome)

	var wg sync.WaitGroup
	wg.Add(s.opts.Workers)
	for i := 0; i < s.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if s.limiter != nil {
					if err := s.limiter.Wait(ctx); err != nil {
						return
					}
				}
				rec, err := s.simulate(ctx, j.agent, j.scenario)
				if err != nil {
					return
				}
				select {
				case outCh <- outcome{idx: j.idx, rec: rec}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case jobCh <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	// Side effects (sink flush, events) happen here on a single goroutine.
	slots := make([]Record, len(jobs))
	filled := make([]bool, len(jobs))
	for out := range outCh {
		slots[out.idx] = out.rec
		filled[out.idx] = true
		s.flush(res.RunID, out.rec)
	}

	for i, ok := range filled {
		if ok {
			res.Records = append(res.Records, slots[i])
		}
	}
	return ctx.Err()
}

// simulate runs one (persona, scenario) pair. Provider failures become
// error records so the batch keeps going; the returned error is non-nil
// only when the run itself is being cancelled.
func (s *Simulator) simulate(ctx context.Context, ag *agent.Agent, sc scenario.Scenario) (Record, error) {
	start := time.Now()
	rec := Record{
		PersonaID:    ag.Profile().ID,
		PersonaName:  ag.Profile().Name,
		ScenarioID:   sc.ID,
		ScenarioName: sc.Name,
		CreatedAt:    start.UTC(),
	}

	reply, err := ag.RespondWithDecision(ctx, sc.Text)
	rec.Duration = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return Record{}, ctx.Err()
		}
		log.Printf("simulator: %s on %s failed: %v", rec.PersonaName, sc.ID, err)
		rec.Decision = decision.Unclear
		rec.Err = err.Error()
		return rec, nil
	}

	rec.Decision = reply.Decision
	rec.Rationale = reply.Rationale
	rec.Response = reply.Raw
	return rec, nil
}

func (s *Simulator) flush(runID string, rec Record) {
	if s.opts.Sink != nil {
		if err := s.opts.Sink.SaveRecord(runID, rec); err != nil {
			log.Printf("simulator: flush record %s/%s: %v", rec.PersonaID, rec.ScenarioID, err)
		}
	}
	s.publish(SubjectRunRecord, RecordEvent{RunID: runID, Record: rec})
}

func (s *Simulator) publish(subject string, v interface{}) {
	if s.opts.Events == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("simulator: marshal %s event: %v", subject, err)
		return
	}
	if err := s.opts.Events.Publish(subject, data); err != nil {
		log.Printf("simulator: publish %s: %v", subject, err)
	}
}
