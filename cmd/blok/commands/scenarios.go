package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emilyhoughkovacs/blok-persona-clustering/config"
	"github.com/emilyhoughkovacs/blok-persona-clustering/scenario"
)

var scenariosFilePath string

// ScenariosCmd groups the scenario subcommands.
var ScenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Inspect scenario files",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios",
	Long:  `List the scenarios a run would present, built-in or from a file.`,
	Run: func(cmd *cobra.Command, args []string) {
		listScenarios()
	},
}

func init() {
	ScenariosCmd.PersistentFlags().StringVar(&scenariosFilePath, "scenarios", "", "Path to a scenario JSON file (default: built-ins)")

	ScenariosCmd.AddCommand(scenariosListCmd)
}

func listScenarios() {
	path := scenariosFilePath
	if path == "" {
		path = config.Load().ScenariosPath
	}

	var scenarios []scenario.Scenario
	if path == "" {
		scenarios = scenario.Defaults()
		fmt.Printf("Found %d built-in scenarios:\n", len(scenarios))
	} else {
		var err error
		scenarios, err = scenario.Load(path)
		if err != nil {
			fmt.Printf("Error loading scenarios: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Found %d scenarios in %s:\n", len(scenarios), path)
	}

	for _, sc := range scenarios {
		fmt.Printf("- %s (ID: %s)\n", sc.Name, sc.ID)
		fmt.Printf("  %s\n", sc.Text)
		fmt.Println()
	}
}
