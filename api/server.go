// Package api exposes stored simulation runs over REST and streams live
// batch progress over a websocket.
package api

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"

	"github.com/emilyhoughkovacs/blok-persona-clustering/api/handlers"
	"github.com/emilyhoughkovacs/blok-persona-clustering/broker"
	"github.com/emilyhoughkovacs/blok-persona-clustering/communication"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
	"github.com/emilyhoughkovacs/blok-persona-clustering/storage"
)

// Options configures a results server. Personas, Scenarios and Store are
// required. Broker enables live event streaming to websocket clients;
// Provider enables launching live (non-mock) runs.
type Options struct {
	Personas  *persona.Store
	Scenarios []scenario.Scenario
	Store     *storage.Store
	Broker    *broker.Broker
	Provider  provider.Provider
	Defaults  handlers.RunDefaults
}

// Server owns the router, the websocket manager and the broker-to-websocket
// relay. Construct with NewServer, release with Close.
type Server struct {
	router  *gin.Engine
	manager *communication.Manager
	sub     *nats.Subscription
}

// NewServer wires the handlers and, when a broker is present, starts
// relaying run events to websocket clients.
func NewServer(opts Options) (*Server, error) {
	if opts.Personas == nil || opts.Store == nil {
		return nil, fmt.Errorf("api server needs a persona store and a result store")
	}
	if len(opts.Scenarios) == 0 {
		return nil, fmt.Errorf("api server needs at least one scenario")
	}

	manager := communication.NewManager()

	var events simulator.Publisher
	if opts.Broker != nil {
		events = opts.Broker
	}

	h := handlers.New(handlers.Options{
		Personas:  opts.Personas,
		Scenarios: opts.Scenarios,
		Store:     opts.Store,
		Manager:   manager,
		Provider:  opts.Provider,
		Events:    events,
		Defaults:  opts.Defaults,
	})

	router := gin.Default()
	SetupRoutes(router, h)

	s := &Server{router: router, manager: manager}

	if opts.Broker != nil {
		sub, err := opts.Broker.Subscribe("blok.run.>", s.relay)
		if err != nil {
			manager.Close()
			return nil, fmt.Errorf("subscribe to run events: %w", err)
		}
		s.sub = sub
	}
	return s, nil
}

// relay turns a broker run event into a websocket broadcast. Subjects
// outside the run namespace are ignored.
func (s *Server) relay(msg *nats.Msg) {
	var eventType string
	switch msg.Subject {
	case simulator.SubjectRunStarted:
		eventType = communication.EventRunStarted
	case simulator.SubjectRunRecord:
		eventType = communication.EventAgentDecision
	case simulator.SubjectRunCompleted:
		eventType = communication.EventRunCompleted
	case simulator.SubjectRunFailed:
		eventType = communication.EventRunFailed
	default:
		return
	}
	s.manager.Broadcast(eventType, json.RawMessage(msg.Data))
}

// Router exposes the gin engine, mainly so tests can drive it directly.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP on addr and blocks until the listener fails.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close stops the event relay and disconnects websocket clients. The
// caller still owns the broker and the stores.
func (s *Server) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.manager.Close()
}
