package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emilyhoughkovacs/blok-persona-clustering/config"
	"github.com/emilyhoughkovacs/blok-persona-clustering/persona"
	"github.com/emilyhoughkovacs/blok-persona-clustering/utils"
)

var (
	personasPath  string
	personasForce bool
)

// PersonasCmd groups the persona subcommands.
var PersonasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Inspect and scaffold persona files",
}

var personasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List personas",
	Long:  `List every persona in the personas file with its cluster size and share.`,
	Run: func(cmd *cobra.Command, args []string) {
		listPersonas()
	},
}

var personasInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter personas file",
	Long: `Write the built-in segment personas to the personas path, creating parent
directories as needed. The file is meant to be edited or replaced by the
export of the clustering pipeline.`,
	Run: func(cmd *cobra.Command, args []string) {
		initPersonas()
	},
}

func init() {
	PersonasCmd.PersistentFlags().StringVar(&personasPath, "personas", "", "Path to the persona JSON file")
	personasInitCmd.Flags().BoolVar(&personasForce, "force", false, "Overwrite an existing file")

	PersonasCmd.AddCommand(personasListCmd)
	PersonasCmd.AddCommand(personasInitCmd)
}

func personasFile() string {
	if personasPath != "" {
		return personasPath
	}
	return config.Load().PersonasPath
}

func listPersonas() {
	path := personasFile()
	if !utils.FileExists(path) {
		fmt.Printf("Error: personas file %s does not exist (run `blok personas init` to scaffold one)\n", path)
		os.Exit(1)
	}

	store, err := persona.Load(path)
	if err != nil {
		fmt.Printf("Error loading personas: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d personas in %s:\n", store.Len(), path)
	for _, row := range store.Summary() {
		fmt.Printf("- %s (ID: %s)\n", row.Name, row.ID)
		if row.Size > 0 {
			fmt.Printf("  Cluster: %d customers (%.1f%%)\n", row.Size, row.Share)
		}
		fmt.Println()
	}
}

func initPersonas() {
	path := personasFile()
	if utils.FileExists(path) && !personasForce {
		fmt.Printf("Error: %s already exists (use --force to overwrite)\n", path)
		os.Exit(1)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Error creating directory %s: %v\n", dir, err)
			os.Exit(1)
		}
	}

	store := persona.FromProfiles(persona.DefaultProfiles())
	if err := store.WriteFile(path); err != nil {
		fmt.Printf("Error writing personas: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d personas to %s\n", store.Len(), path)
}
