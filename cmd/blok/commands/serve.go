package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/emilyhoughkovacs/blok-persona-clustering/api"
	"github.com/emilyhoughkovacs/blok-persona-clustering/api/handlers"
	"github.com/emilyhoughkovacs/blok-persona-clustering/broker"
	"github.com/emilyhoughkovacs/blok-persona-clustering/config"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/storage"
	"github.com/emilyhoughkovacs/blok-persona-clustering/utils"
)

var (
	servePort      int
	servePersonas  string
	serveScenarios string
	serveDataDir   string
	serveNATS      string
	serveMock      bool
	serveModel     string
	serveWorkers   int
	serveRPS       float64
)

// ServeCmd starts the results API server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored runs over REST and stream live progress",
	Long: `Start the API server. Clients can browse personas, scenarios and stored
runs, launch new batches, and follow run events over a websocket.

Without a NATS URL the server runs its own embedded broker.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := serveConfig(cmd)
		if err := serveAPI(cfg); err != nil {
			log.Fatalf("serve: %v", err)
		}
	},
}

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", config.DefaultAPIPort, "API port (0 probes for a free one)")
	ServeCmd.Flags().StringVar(&servePersonas, "personas", "", "Path to the persona JSON file")
	ServeCmd.Flags().StringVar(&serveScenarios, "scenarios", "", "Path to a scenario JSON file (default: built-ins)")
	ServeCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Result database directory")
	ServeCmd.Flags().StringVar(&serveNATS, "nats", "", "External NATS URL (default: embedded broker)")
	ServeCmd.Flags().BoolVar(&serveMock, "mock", false, "Default launched runs to scripted responses")
	ServeCmd.Flags().StringVar(&serveModel, "model", "", "Default provider model for launched runs")
	ServeCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Default concurrent provider calls for launched runs")
	ServeCmd.Flags().Float64Var(&serveRPS, "rps", 0, "Default cap on provider calls per second")
}

func serveConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	flags := cmd.Flags()

	if flags.Changed("port") {
		cfg.APIPort = servePort
	}
	if servePersonas != "" {
		cfg.PersonasPath = servePersonas
	}
	if serveScenarios != "" {
		cfg.ScenariosPath = serveScenarios
	}
	if serveDataDir != "" {
		cfg.DataDir = serveDataDir
	}
	if serveNATS != "" {
		cfg.NATSURL = serveNATS
	}
	if flags.Changed("mock") {
		cfg.MockMode = serveMock
	}
	if serveModel != "" {
		cfg.Model = serveModel
	}
	if flags.Changed("workers") {
		cfg.Workers = serveWorkers
	}
	if flags.Changed("rps") {
		cfg.RPS = serveRPS
	}
	return cfg
}

func serveAPI(cfg config.Config) error {
	personas, err := loadPersonas(cfg)
	if err != nil {
		return err
	}
	scenarios, err := loadScenarios(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(storage.DefaultConfig(cfg.DataDir))
	if err != nil {
		return err
	}
	defer store.Close()

	var b *broker.Broker
	if cfg.NATSURL != "" {
		b, err = broker.Connect(cfg.NATSURL)
	} else {
		b, err = broker.StartEmbedded()
	}
	if err != nil {
		return err
	}
	defer b.Close()

	var llm provider.Provider
	if cfg.OpenAIKey != "" {
		p, err := buildProvider(cfg)
		if err != nil {
			return err
		}
		llm = p
	}

	mockDefault := cfg.MockMode
	if llm == nil && !mockDefault {
		log.Printf("serve: no OPENAI_API_KEY set, launched runs default to mock mode")
		mockDefault = true
	}

	srv, err := api.NewServer(api.Options{
		Personas:  personas,
		Scenarios: scenarios,
		Store:     store,
		Broker:    b,
		Provider:  llm,
		Defaults: handlers.RunDefaults{
			Model:    cfg.Model,
			MockMode: mockDefault,
			Workers:  cfg.Workers,
			RPS:      cfg.RPS,
		},
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	if cfg.APIPort == 0 {
		cfg.APIPort = utils.FindAvailableAPIPort()
	}
	log.Printf("serve: listening on :%d (%d personas, %d scenarios)", cfg.APIPort, personas.Len(), len(scenarios))
	return srv.Run(fmt.Sprintf(":%d", cfg.APIPort))
}
