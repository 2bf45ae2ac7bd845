package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/absmach/baseliner/baselinerd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "baselinerd",
		Short: "Baseliner Daemon",
		Long:  `Baseliner Daemon is a daemon that manages the lifecycle of Baseliner components.`,
	}

	orchestratorCmd := baselinerd.NewOrchestratorCmd()
	trainerCmd := baselinerd.NewTrainerCmd()

	rootCmd.AddCommand(orchestratorCmd)
	rootCmd.AddCommand(trainerCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
