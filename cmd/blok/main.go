package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emilyhoughkovacs/blok-persona-clustering/cmd/blok/commands"
)

var rootCmd = &cobra.Command{
	Use:   "blok",
	Short: "Persona simulation pipeline",
	Long: `Role-plays clustered customer personas against product scenarios,
parses their purchase decisions and reports the results.`,
}

func init() {
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.PersonasCmd)
	rootCmd.AddCommand(commands.ScenariosCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
