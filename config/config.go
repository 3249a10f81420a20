// Package config assembles runtime settings from a .env file and the
// process environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for everything a run can work out on its own.
const (
	DefaultModel        = "gpt-4o-mini"
	DefaultPersonasPath = "data/processed/personas.json"
	DefaultOutDir       = "results"
	DefaultDataDir      = ".blok/db"
	DefaultAPIPort      = 8080
	DefaultTimeout      = 60 * time.Second
)

// Config carries every knob the pipeline recognizes. Values come from the
// environment (after an optional .env load); CLI flags may override them
// afterwards.
type Config struct {
	// OpenAIKey authenticates live provider calls. Empty is fine in mock
	// mode and fatal otherwise.
	OpenAIKey string
	// SerpKey enables web research enrichment when set.
	SerpKey string

	Model         string
	MockMode      bool
	PersonasPath  string
	ScenariosPath string
	OutDir        string
	DataDir       string

	// NATSURL points at an external event broker. Empty means start an
	// embedded server when one is needed.
	NATSURL string
	APIPort int

	// Timeout bounds a single provider call.
	Timeout time.Duration
	// Workers bounds concurrent provider calls; 0 or 1 is sequential.
	Workers int
	// RPS caps provider calls per second; 0 disables the limiter.
	RPS float64
	// Research turns on web search enrichment for live calls.
	Research bool
}

// Load reads .env (if present) and then the environment. A missing .env is
// normal; a present but malformed one only earns a warning, matching how
// the rest of the environment is treated.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: skipping .env: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching
// any files.
func FromEnv() Config {
	return Config{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		SerpKey:       os.Getenv("SERP_API_KEY"),
		Model:         envStr("BLOK_MODEL", DefaultModel),
		MockMode:      envBool("BLOK_MOCK", false),
		PersonasPath:  envStr("BLOK_PERSONAS", DefaultPersonasPath),
		ScenariosPath: os.Getenv("BLOK_SCENARIOS"),
		OutDir:        envStr("BLOK_OUT", DefaultOutDir),
		DataDir:       envStr("BLOK_DATA_DIR", DefaultDataDir),
		NATSURL:       os.Getenv("BLOK_NATS_URL"),
		APIPort:       envInt("BLOK_API_PORT", DefaultAPIPort),
		Timeout:       time.Duration(envInt("BLOK_TIMEOUT_SECONDS", int(DefaultTimeout/time.Second))) * time.Second,
		Workers:       envInt("BLOK_WORKERS", 1),
		RPS:           envFloat("BLOK_RPS", 0),
		Research:      envBool("BLOK_RESEARCH", false),
	}
}

// Validate catches configuration that would only fail mid-batch. Called
// before any provider work starts.
func (c Config) Validate() error {
	if !c.MockMode && c.OpenAIKey == "" {
		return fmt.Errorf("live mode needs OPENAI_API_KEY; set it or enable mock mode")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.RPS < 0 {
		return fmt.Errorf("requests per second must not be negative, got %g", c.RPS)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: %s=%q is not a boolean, using %t", key, v, fallback)
		return fallback
	}
	return b
}
