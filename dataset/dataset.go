package dataset

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var errInvalidColumnType = errors.New("invalid column type")

type ColumnType uint8

const (
	Numeric ColumnType = iota
	Categorical
	Boolean
	Text
	DateTime
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Boolean:
		return "boolean"
	case Text:
		return "text"
	case DateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(s) {
	case "numeric":
		return Numeric, nil
	case "categorical":
		return Categorical, nil
	case "boolean":
		return Boolean, nil
	case "text":
		return Text, nil
	case "datetime":
		return DateTime, nil
	default:
		return 0, errInvalidColumnType
	}
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ColumnType) UnmarshalJSON(data []byte) error {
	parsed, err := ParseColumnType(strings.Trim(string(data), "\""))
	if err != nil {
		return err
	}
	*t = parsed

	return nil
}

// ColumnStats is the advisory numeric summary of one numeric column.
type ColumnStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Profile is the structural snapshot of one dataset. Every column name
// appears exactly once in each per-column map.
type Profile struct {
	Rows               uint64                 `json:"n_rows"`
	Columns            uint64                 `json:"n_cols"`
	NumericColumns     uint64                 `json:"numeric_cols"`
	CategoricalColumns uint64                 `json:"categorical_cols"`
	ColumnNames        []string               `json:"column_names"`
	ColumnTypes        map[string]ColumnType  `json:"column_types"`
	MissingValues      uint64                 `json:"missing_values"`
	MissingByColumn    map[string]uint64      `json:"missing_by_column"`
	Cardinality        map[string]uint64      `json:"cardinality"`
	NumericStats       map[string]ColumnStats `json:"numeric_stats,omitempty"`
	MemoryMB           float64                `json:"memory_mb"`
}

// HasColumn reports whether the profile covers the named column.
func (p Profile) HasColumn(name string) bool {
	_, ok := p.ColumnTypes[name]

	return ok
}

type Source string

const (
	SourceAuto Source = "auto"
	SourceUser Source = "user"
)

// ColumnConfig partitions columns into ignored and feature sets. The two
// sets are disjoint and never contain the target column.
type ColumnConfig struct {
	IgnoreColumns  []string `json:"ignore_columns"`
	FeatureColumns []string `json:"feature_columns"`
	Source         Source   `json:"source"`
}

// Overlap returns the columns present in both sets.
func (c ColumnConfig) Overlap() []string {
	ignored := make(map[string]bool, len(c.IgnoreColumns))
	for _, col := range c.IgnoreColumns {
		ignored[col] = true
	}
	var both []string
	for _, col := range c.FeatureColumns {
		if ignored[col] {
			both = append(both, col)
		}
	}

	return both
}

type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner,omitempty"`
	Path      string    `json:"path,omitempty"`
	Rows      uint64    `json:"rows"`
	Columns   uint64    `json:"columns"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DatasetPage struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Datasets []Dataset `json:"datasets"`
}
