package main

import (
	"log"

	"github.com/spf13/cobra"

	baseliner "github.com/absmach/baseliner"
	"github.com/absmach/baseliner/cli"
	"github.com/absmach/baseliner/pkg/sdk"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "baseliner-cli",
		Short: "Baseliner CLI",
		Long:  `Baseliner CLI is a command line interface for interacting with Baseliner components.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			orchestratorURL := cli.DefOrchestratorURL
			if cfg, err := baseliner.LoadConfig(cli.ConfigPath); err == nil && cfg.Orchestrator.URL != "" {
				orchestratorURL = cfg.Orchestrator.URL
			}

			sdkConf := sdk.Config{
				OrchestratorURL: orchestratorURL,
				TLSVerification: cli.DefTLSVerification,
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetSDK(s)
		},
	}

	rootCmd.AddCommand(cli.NewDatasetsCmd())
	rootCmd.AddCommand(cli.NewExperimentsCmd())
	rootCmd.AddCommand(cli.NewProvisionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
