package testutil

import (
	"time"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/model"
)

func TestDataset(id string) dataset.Dataset {
	return dataset.Dataset{
		ID:      id,
		Name:    "test-dataset-" + id,
		Path:    "/tmp/datasets/" + id + ".csv",
		Rows:    150,
		Columns: 5,
		Profile: &dataset.Profile{
			Rows:               150,
			Columns:            5,
			NumericColumns:     4,
			CategoricalColumns: 1,
			ColumnNames:        []string{"a", "b", "c", "d", "species"},
			ColumnTypes: map[string]dataset.ColumnType{
				"a": dataset.Numeric, "b": dataset.Numeric,
				"c": dataset.Numeric, "d": dataset.Numeric,
				"species": dataset.Categorical,
			},
			MissingByColumn: map[string]uint64{"a": 0, "b": 0, "c": 0, "d": 0, "species": 0},
			Cardinality:     map[string]uint64{"a": 35, "b": 23, "c": 43, "d": 22, "species": 3},
			MemoryMB:        0.01,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestExperiment(id, datasetID string) experiment.Experiment {
	return experiment.Experiment{
		ID:           id,
		Name:         "test-experiment-" + id,
		DatasetID:    datasetID,
		TargetColumn: "species",
		Models:       []string{model.LogisticRegression, model.RandomForest},
		TestSize:     0.2,
		ColumnConfig: dataset.ColumnConfig{
			FeatureColumns: []string{"a", "b", "c", "d"},
			IgnoreColumns:  []string{},
			Source:         dataset.SourceAuto,
		},
		Preprocessing: experiment.Preprocessing{
			Scaling:   experiment.ScalingStandard,
			Balancing: experiment.BalancingNone,
		},
		State:     experiment.Pending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
