package cli

import (
	"fmt"
	"os"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	baseliner "github.com/absmach/baseliner"
)

var (
	errFailedEnvCreation    = errors.New("failed to create .env file")
	errFailedConfigCreation = errors.New("failed to create baseliner.toml file")
)

const (
	filePermission = 0o644
	// ConfigPath is where provisioning stores the CLI configuration.
	ConfigPath = "baseliner.toml"
)

var (
	// DefOrchestratorURL is the default orchestrator HTTP address.
	DefOrchestratorURL = "http://localhost:7070"
	// DefTLSVerification toggles TLS verification on SDK requests.
	DefTLSVerification = false
)

type Client struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type Result struct {
	OrchestratorClient Client `json:"orchestrator_client"`
	TrainerClient      Client `json:"trainer_client"`
	ChannelID          string `json:"channel_id"`
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision resources",
	Long: `Provision necessary credentials for Baseliner operation.

Generates client and channel identities for the orchestrator and the
trainer and writes them to .env and baseliner.toml. The credentials work
with any broker that authenticates clients by ID and key.`,
	Run: func(cmd *cobra.Command, args []string) {
		res := Result{
			OrchestratorClient: Client{
				ID:  uuid.NewString(),
				Key: uuid.NewString(),
			},
			TrainerClient: Client{
				ID:  uuid.NewString(),
				Key: uuid.NewString(),
			},
			ChannelID: uuid.NewString(),
		}
		logSuccessCmd(*cmd, "Successfully generated orchestrator and trainer credentials")

		envContent := fmt.Sprintf(`# Baseliner Environment Configuration

# Orchestrator Configuration
ORCHESTRATOR_CLIENT_ID=%s
ORCHESTRATOR_CLIENT_KEY=%s
ORCHESTRATOR_CHANNEL_ID=%s

# Trainer Configuration
TRAINER_CLIENT_ID=%s
TRAINER_CLIENT_KEY=%s
TRAINER_CHANNEL_ID=%s`,
			res.OrchestratorClient.ID,
			res.OrchestratorClient.Key,
			res.ChannelID,
			res.TrainerClient.ID,
			res.TrainerClient.Key,
			res.ChannelID,
		)

		if err := os.WriteFile(".env", []byte(envContent), filePermission); err != nil {
			logErrorCmd(*cmd, errors.Wrap(errFailedEnvCreation, err))

			return
		}
		logSuccessCmd(*cmd, "Successfully created .env file")

		cfg := baseliner.Config{
			Orchestrator: baseliner.OrchestratorConfig{
				URL:       DefOrchestratorURL,
				ClientID:  res.OrchestratorClient.ID,
				ClientKey: res.OrchestratorClient.Key,
				ChannelID: res.ChannelID,
			},
			Trainer: baseliner.TrainerConfig{
				ClientID:  res.TrainerClient.ID,
				ClientKey: res.TrainerClient.Key,
				ChannelID: res.ChannelID,
			},
		}
		if err := baseliner.SaveConfig(ConfigPath, cfg); err != nil {
			logErrorCmd(*cmd, errors.Wrap(errFailedConfigCreation, err))

			return
		}
		logSuccessCmd(*cmd, "Successfully created baseliner.toml file")

		logJSONCmd(*cmd, res)
	},
}

func NewProvisionCmd() *cobra.Command {
	return provisionCmd
}
