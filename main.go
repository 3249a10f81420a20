package main

import (
	"context"
	"fmt"
	"log"

	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/report"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

// Quickstart entry point: role-play the built-in personas against the
// built-in scenarios in mock mode and write the artifacts to results/.
// The full CLI lives in cmd/blok.
func main() {
	sim, err := simulator.New(persona.DefaultProfiles(), scenario.Defaults(), simulator.Options{
		MockMode: true,
	})
	if err != nil {
		log.Fatalf("build simulator: %v", err)
	}

	res, err := sim.Run(context.Background())
	if err != nil {
		log.Fatalf("run batch: %v", err)
	}

	paths, summary, err := report.Writer{Dir: "results"}.Write(res)
	if err != nil {
		log.Fatalf("write artifacts: %v", err)
	}

	fmt.Print(summary.Text())
	log.Printf("artifacts: %s, %s, %s", paths.CSV, paths.Heatmap, paths.Summary)
}
