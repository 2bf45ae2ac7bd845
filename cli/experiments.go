package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/absmach/baseliner/pkg/sdk"
)

func NewExperimentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments [create|view|list|results|delete]",
		Short: "Experiments management",
		Long:  `Create, view, list, delete experiments and poll their results.`,
	}

	createCmd := &cobra.Command{
		Use:   "create [<name> <dataset_id> <target_column> <model,model...>]",
		Short: "Create experiment",
		Long: `Create experiment. Without arguments an interactive form is shown.

Examples:
  # Create an experiment interactively
  baseliner-cli experiments create

  # Create an experiment directly
  baseliner-cli experiments create churn-baseline b1d10738-c5d7-4ff1-8f4d-b9328ce6f040 churned logistic_regression,random_forest`,
		Run: func(cmd *cobra.Command, args []string) {
			var e sdk.Experiment
			switch len(args) {
			case 0:
				var err error
				e, err = experimentForm()
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			case 4:
				e = sdk.Experiment{
					Name:         args[0],
					DatasetID:    args[1],
					TargetColumn: args[2],
					Models:       strings.Split(args[3], ","),
				}
			default:
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			created, err := bsdk.CreateExperiment(e)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, created)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View experiment",
		Long:  `View experiment.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			e, err := bsdk.GetExperiment(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, e)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List experiments",
		Long:  `List experiments.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p, err := bsdk.ListExperiments(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	}

	resultsCmd := &cobra.Command{
		Use:   "results <id>",
		Short: "Get results",
		Long:  `Get the current results of an experiment.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := bsdk.GetResults(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete experiment",
		Long:  `Delete experiment, canceling it when it is still running.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := bsdk.DeleteExperiment(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	cmd.AddCommand(createCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(resultsCmd)
	cmd.AddCommand(deleteCmd)

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

func experimentForm() (sdk.Experiment, error) {
	var (
		name      string
		datasetID string
		target    string
		models    []string
		testSize  string
		scaling   string
		balancing string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Experiment name").
				Value(&name),
			huh.NewInput().
				Title("Dataset ID").
				Value(&datasetID),
			huh.NewInput().
				Title("Target column").
				Value(&target),
			huh.NewMultiSelect[string]().
				Title("Models").
				Options(huh.NewOptions("logistic_regression", "random_forest", "gradient_boosting")...).
				Value(&models),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Test size").
				Placeholder("0.2").
				Value(&testSize),
			huh.NewSelect[string]().
				Title("Scaling").
				Options(huh.NewOptions("standard", "minmax", "none")...).
				Value(&scaling),
			huh.NewSelect[string]().
				Title("Balancing").
				Options(huh.NewOptions("none", "class_weight", "smote")...).
				Value(&balancing),
		),
	)
	if err := form.Run(); err != nil {
		return sdk.Experiment{}, err
	}

	e := sdk.Experiment{
		Name:         name,
		DatasetID:    datasetID,
		TargetColumn: target,
		Models:       models,
		Preprocessing: sdk.Preprocessing{
			Scaling:   scaling,
			Balancing: balancing,
		},
	}
	if testSize != "" {
		ts, err := strconv.ParseFloat(testSize, 64)
		if err != nil {
			return sdk.Experiment{}, fmt.Errorf("invalid test size: %s", testSize)
		}
		e.TestSize = ts
	}

	return e, nil
}
