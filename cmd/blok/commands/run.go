// Package commands implements the blok CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilyhoughkovacs/blok-persona-clustering/agent"
	"github.com/emilyhoughkovacs/blok-persona-clustering/broker"
	"github.com/emilyhoughkovacs/blok-persona-clustering/config"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/report"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
	"github.com/emilyhoughkovacs/blok-persona-clustering/storage"
	"github.com/emilyhoughkovacs/blok-persona-clustering/utils"
)

var (
	runMock      bool
	runModel     string
	runPersonas  string
	runScenarios string
	runOut       string
	runDataDir   string
	runNATS      string
	runWorkers   int
	runRPS       float64
	runTimeout   int
	runResearch  bool
	runNarrative bool
)

// RunCmd executes the full persona-by-scenario batch.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the persona simulation batch",
	Long: `Load personas and scenarios, role-play every pair, and write the CSV
table, the decision heatmap and the validation report.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := runConfig(cmd)
		if err := runBatch(cfg); err != nil {
			log.Fatalf("run: %v", err)
		}
	},
}

func init() {
	RunCmd.Flags().BoolVar(&runMock, "mock", false, "Use scripted responses instead of live provider calls")
	RunCmd.Flags().StringVar(&runModel, "model", "", "Provider model identifier")
	RunCmd.Flags().StringVar(&runPersonas, "personas", "", "Path to the persona JSON file")
	RunCmd.Flags().StringVar(&runScenarios, "scenarios", "", "Path to a scenario JSON file (default: built-ins)")
	RunCmd.Flags().StringVar(&runOut, "out", "", "Output directory for run artifacts")
	RunCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Result database directory")
	RunCmd.Flags().StringVar(&runNATS, "nats", "", "NATS URL to publish run events to (default: none)")
	RunCmd.Flags().IntVar(&runWorkers, "workers", 0, "Concurrent provider calls (default: sequential)")
	RunCmd.Flags().Float64Var(&runRPS, "rps", 0, "Cap on provider calls per second")
	RunCmd.Flags().IntVar(&runTimeout, "timeout", 0, "Per-call timeout in seconds")
	RunCmd.Flags().BoolVar(&runResearch, "research", false, "Enrich scenarios with web research before answering")
	RunCmd.Flags().BoolVar(&runNarrative, "narrative", false, "Ask the model for a written analysis of the results")
}

// runConfig layers the run flags over the environment configuration.
// Flags win, but only when actually set.
func runConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	flags := cmd.Flags()

	if flags.Changed("mock") {
		cfg.MockMode = runMock
	}
	if runModel != "" {
		cfg.Model = runModel
	}
	if runPersonas != "" {
		cfg.PersonasPath = runPersonas
	}
	if runScenarios != "" {
		cfg.ScenariosPath = runScenarios
	}
	if runOut != "" {
		cfg.OutDir = runOut
	}
	if runDataDir != "" {
		cfg.DataDir = runDataDir
	}
	if runNATS != "" {
		cfg.NATSURL = runNATS
	}
	if flags.Changed("workers") {
		cfg.Workers = runWorkers
	}
	if flags.Changed("rps") {
		cfg.RPS = runRPS
	}
	if flags.Changed("timeout") {
		cfg.Timeout = time.Duration(runTimeout) * time.Second
	}
	if flags.Changed("research") {
		cfg.Research = runResearch
	}
	return cfg
}

func runBatch(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	personas, err := loadPersonas(cfg)
	if err != nil {
		return err
	}
	scenarios, err := loadScenarios(cfg)
	if err != nil {
		return err
	}

	var llm provider.Provider
	var researcher *agent.Researcher
	if !cfg.MockMode {
		p, err := buildProvider(cfg)
		if err != nil {
			return err
		}
		llm = p
		if cfg.Research {
			if cfg.SerpKey == "" {
				log.Printf("run: research requested but SERP_API_KEY is not set, skipping")
			} else {
				researcher = agent.NewResearcher(p, cfg.SerpKey)
			}
		}
	} else if cfg.Research {
		log.Printf("run: research is disabled in mock mode")
	}

	store, err := storage.Open(storage.DefaultConfig(cfg.DataDir))
	if err != nil {
		return err
	}
	defer store.Close()

	var events simulator.Publisher
	if cfg.NATSURL != "" {
		b, err := broker.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer b.Close()
		events = b
	}

	sim, err := simulator.New(personas.Profiles(), scenarios, simulator.Options{
		Model:      cfg.Model,
		MockMode:   cfg.MockMode,
		Provider:   llm,
		Researcher: researcher,
		Workers:    cfg.Workers,
		RPS:        cfg.RPS,
		Sink:       store,
		Events:     events,
	})
	if err != nil {
		return err
	}

	// Ctrl+C cancels the batch; completed records are already flushed and
	// still get their artifacts below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("run: %d personas x %d scenarios (%s)", personas.Len(), len(scenarios), modeLabel(cfg.MockMode))
	res, runErr := sim.Run(ctx)
	if runErr != nil {
		log.Printf("run: interrupted (%v), keeping %d completed records", runErr, len(res.Records))
	}

	if err := store.SaveRun(res); err != nil {
		log.Printf("run: save run %s: %v", res.RunID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("no records produced")
	}

	paths, summary, err := report.Writer{Dir: cfg.OutDir}.Write(res)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(summary.Text())
	log.Printf("run: wrote %s, %s, %s", paths.CSV, paths.Heatmap, paths.Summary)

	if runNarrative {
		if err := writeNarrative(cfg, res); err != nil {
			log.Printf("run: narrative skipped: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("batch interrupted: %w", runErr)
	}
	return nil
}

// writeNarrative asks the model to read the finished run and saves its
// write-up alongside the other artifacts. Works in mock mode too, as long
// as an API key is available.
func writeNarrative(cfg config.Config, res *simulator.Result) error {
	if cfg.OpenAIKey == "" {
		return fmt.Errorf("needs OPENAI_API_KEY")
	}
	p, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	analysis, err := report.NewAnalyst(p).Analyze(ctx, res)
	if err != nil {
		return err
	}
	path, err := report.Writer{Dir: cfg.OutDir}.WriteAnalysis(analysis)
	if err != nil {
		return err
	}
	log.Printf("run: wrote %s", path)
	return nil
}

func loadPersonas(cfg config.Config) (*persona.Store, error) {
	if !utils.FileExists(cfg.PersonasPath) {
		return nil, fmt.Errorf("personas file %s does not exist; run `blok personas init` to scaffold one", cfg.PersonasPath)
	}
	return persona.Load(cfg.PersonasPath)
}

func loadScenarios(cfg config.Config) ([]scenario.Scenario, error) {
	if cfg.ScenariosPath == "" {
		return scenario.Defaults(), nil
	}
	return scenario.Load(cfg.ScenariosPath)
}

func buildProvider(cfg config.Config) (*provider.OpenAI, error) {
	pcfg := provider.DefaultConfig()
	pcfg.Model = cfg.Model
	if cfg.Timeout > 0 {
		pcfg.Timeout = cfg.Timeout
	}
	return provider.NewOpenAI(cfg.OpenAIKey, pcfg)
}

func modeLabel(mock bool) string {
	if mock {
		return "mock mode"
	}
	return "live mode"
}
