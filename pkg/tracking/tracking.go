package tracking

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

const runLogFilename = "runs.csv"

// Record is one leaderboard entry as it is appended to the run log.
type Record struct {
	ExperimentID   string    `csv:"experiment_id"   json:"experiment_id"`
	ExperimentName string    `csv:"experiment_name" json:"experiment_name"`
	DatasetID      string    `csv:"dataset_id"      json:"dataset_id"`
	Model          string    `csv:"model"           json:"model"`
	Accuracy       float64   `csv:"accuracy"        json:"accuracy"`
	Precision      float64   `csv:"precision"       json:"precision"`
	Recall         float64   `csv:"recall"          json:"recall"`
	F1             float64   `csv:"f1"              json:"f1"`
	TrainingTime   float64   `csv:"training_time"   json:"training_time"`
	CreatedAt      time.Time `csv:"created_at"      json:"created_at"`
}

// Tracker is an append-only run log under a base directory. Writes are
// serialized; a failed append never corrupts previously written rows.
type Tracker struct {
	mu   sync.Mutex
	path string
}

func New(baseDir string) (*Tracker, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	return &Tracker{
		path: filepath.Join(baseDir, runLogFilename),
	}, nil
}

// Append writes the records to the end of the run log.
func (t *Tracker) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.OpenFile(t.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.MarshalWithoutHeaders(&records, file)
}

// List reads the full run log back. A log that was never written is empty,
// not an error.
func (t *Tracker) List() ([]Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}

		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := gocsv.UnmarshalWithoutHeaders(file, &records); err != nil {
		return nil, err
	}

	return records, nil
}
