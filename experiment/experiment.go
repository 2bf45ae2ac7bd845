package experiment

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/absmach/baseliner/dataset"
)

var (
	errInvalidState     = errors.New("invalid experiment state")
	errInvalidScaling   = errors.New("scaling must be one of: standard, minmax, none")
	errInvalidBalancing = errors.New("balancing must be one of: none, class_weight, smote")
)

type State uint8

const (
	Pending State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func ParseState(s string) (State, error) {
	switch strings.ToLower(s) {
	case "pending":
		return Pending, nil
	case "running":
		return Running, nil
	case "completed":
		return Completed, nil
	case "failed":
		return Failed, nil
	default:
		return 0, errInvalidState
	}
}

// Terminal reports whether the state absorbs further transitions.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	parsed, err := ParseState(strings.Trim(string(data), "\""))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}

type Scaling string

const (
	ScalingStandard Scaling = "standard"
	ScalingMinMax   Scaling = "minmax"
	ScalingNone     Scaling = "none"
)

type Balancing string

const (
	BalancingNone        Balancing = "none"
	BalancingClassWeight Balancing = "class_weight"
	BalancingSMOTE       Balancing = "smote"
)

// Preprocessing is the requested scaling and class-balancing configuration.
// Per-model compatibility filtering happens at resolve time, never here.
type Preprocessing struct {
	Scaling   Scaling   `json:"scaling"`
	Balancing Balancing `json:"balancing"`
}

func (p Preprocessing) Validate() error {
	switch p.Scaling {
	case ScalingStandard, ScalingMinMax, ScalingNone:
	default:
		return errInvalidScaling
	}
	switch p.Balancing {
	case BalancingNone, BalancingClassWeight, BalancingSMOTE:
	default:
		return errInvalidBalancing
	}

	return nil
}

// ModelPreprocessing records the effective settings one model trains with,
// together with any compatibility downgrades applied on the way.
type ModelPreprocessing struct {
	Model     string        `json:"model"`
	Effective Preprocessing `json:"effective"`
	Notes     []string      `json:"notes,omitempty"`
}

// ModelRun is the per-model bookkeeping entry of one experiment. Runs keep
// request order and survive the run whether it succeeds or fails.
type ModelRun struct {
	Model      string    `json:"model"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	StartTime  time.Time `json:"start_time"`
	FinishTime time.Time `json:"finish_time"`
}

type ModelResult struct {
	Model        string  `json:"model"`
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	TrainingTime float64 `json:"training_time"`
}

// SortLeaderboard orders results by F1 descending, ties broken by ascending
// training time.
func SortLeaderboard(results []ModelResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].F1 == results[j].F1 {
			return results[i].TrainingTime < results[j].TrainingTime
		}

		return results[i].F1 > results[j].F1
	})
}

type Experiment struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Owner         string               `json:"owner,omitempty"`
	DatasetID     string               `json:"dataset_id"`
	TargetColumn  string               `json:"target_column"`
	Models        []string             `json:"models"`
	TestSize      float64              `json:"test_size"`
	ColumnConfig  dataset.ColumnConfig `json:"column_config"`
	Preprocessing Preprocessing        `json:"preprocessing"`
	Resolved      []ModelPreprocessing `json:"resolved,omitempty"`
	State         State                `json:"state"`
	Error         string               `json:"error,omitempty"`
	Runs          []ModelRun           `json:"runs,omitempty"`
	Leaderboard   []ModelResult        `json:"leaderboard,omitempty"`
	LabelMapping  map[string]string    `json:"label_mapping,omitempty"`
	StartTime     time.Time            `json:"start_time"`
	FinishTime    time.Time            `json:"finish_time"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type ExperimentPage struct {
	Offset      uint64       `json:"offset"`
	Limit       uint64       `json:"limit"`
	Total       uint64       `json:"total"`
	Experiments []Experiment `json:"experiments"`
}
