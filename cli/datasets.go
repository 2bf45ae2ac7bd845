package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/absmach/baseliner/pkg/sdk"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
	owner     string
)

var bsdk sdk.SDK

func SetSDK(s sdk.SDK) {
	bsdk = s
}

func NewDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets [upload|view|list|delete|profile|suggest|estimate]",
		Short: "Datasets management",
		Long:  `Upload, view, list, delete, profile datasets and get column suggestions and runtime estimates.`,
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <name> <file.csv>",
		Short: "Upload dataset",
		Long: `Upload a CSV file and register it as a dataset.

Examples:
  # Upload a dataset named churn
  baseliner-cli datasets upload churn ./churn.csv`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			d, err := bsdk.UploadDataset(args[0], owner, args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, d)
		},
	}

	uploadCmd.Flags().StringVar(
		&owner,
		"owner",
		"",
		"Dataset owner",
	)

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View dataset",
		Long:  `View dataset.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			d, err := bsdk.GetDataset(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, d)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets",
		Long:  `List datasets.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p, err := bsdk.ListDatasets(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete dataset",
		Long:  `Delete dataset together with its file and experiments.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := bsdk.DeleteDataset(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	profileCmd := &cobra.Command{
		Use:   "profile <id>",
		Short: "Profile dataset",
		Long:  `Show the structural profile of a dataset.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p, err := bsdk.ProfileDataset(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	}

	suggestCmd := &cobra.Command{
		Use:   "suggest <id> <target_column>",
		Short: "Suggest columns",
		Long:  `Suggest which columns to use as features for the given target column.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := bsdk.SuggestColumns(args[0], args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	estimateCmd := &cobra.Command{
		Use:   "estimate <id> <model,model...>",
		Short: "Estimate runtime",
		Long: `Estimate training runtime for the given models.

Examples:
  baseliner-cli datasets estimate b1d10738-c5d7-4ff1-8f4d-b9328ce6f040 logistic_regression,random_forest`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			e, err := bsdk.EstimateRuntime(args[0], strings.Split(args[1], ","))
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, e)
		},
	}

	cmd.AddCommand(uploadCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(deleteCmd)
	cmd.AddCommand(profileCmd)
	cmd.AddCommand(suggestCmd)
	cmd.AddCommand(estimateCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}
