package profiler

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/absmach/baseliner/dataset"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/table"
	"github.com/montanaflynn/stats"
)

const (
	defMaxCategoricalCardinality = 50
	defMaxCategoricalRatio       = 0.05

	// Advisory per-cell bookkeeping overhead for the memory estimate.
	perCellOverhead = 16
)

var defMissingTokens = []string{"na", "n/a", "null", "nan", "none", "?"}

// DefaultMissingTokens returns the sentinel tokens treated as missing when
// a config supplies none. Shared by every component that reads raw cells.
func DefaultMissingTokens() []string {
	return append([]string(nil), defMissingTokens...)
}

// Recognized two-element boolean domains, lowercased.
var boolDomains = [][2]string{
	{"0", "1"},
	{"false", "true"},
	{"no", "yes"},
	{"f", "t"},
	{"n", "y"},
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

type Config struct {
	// MissingTokens are matched case-insensitively against trimmed cells.
	// Empty and whitespace-only cells always count as missing.
	MissingTokens []string
	// A column is categorical when its distinct count stays within
	// max(MaxCategoricalCardinality, MaxCategoricalRatio*rows).
	MaxCategoricalCardinality uint64
	MaxCategoricalRatio       float64
	// MaxCells caps rows*columns. Zero means no ceiling.
	MaxCells uint64
}

type Profiler struct {
	missing  map[string]bool
	maxCard  uint64
	maxRatio float64
	maxCells uint64
}

func New(cfg Config) *Profiler {
	tokens := cfg.MissingTokens
	if len(tokens) == 0 {
		tokens = defMissingTokens
	}
	missing := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		missing[strings.ToLower(tok)] = true
	}
	if cfg.MaxCategoricalCardinality == 0 {
		cfg.MaxCategoricalCardinality = defMaxCategoricalCardinality
	}
	if cfg.MaxCategoricalRatio == 0 {
		cfg.MaxCategoricalRatio = defMaxCategoricalRatio
	}

	return &Profiler{
		missing:  missing,
		maxCard:  cfg.MaxCategoricalCardinality,
		maxRatio: cfg.MaxCategoricalRatio,
		maxCells: cfg.MaxCells,
	}
}

// Profile computes the structural snapshot of one table. It is a pure
// function of its input and safe for concurrent use.
func (p *Profiler) Profile(t *table.Table) (dataset.Profile, error) {
	if t == nil || t.Height() == 0 || t.Width() == 0 {
		return dataset.Profile{}, errors.Join(pkgerrors.ErrInvalidDataset, errors.New("zero rows or columns"))
	}
	if p.maxCells > 0 && t.Height()*t.Width() > p.maxCells {
		return dataset.Profile{}, errors.Join(pkgerrors.ErrInvalidDataset, fmt.Errorf("table exceeds %d cells", p.maxCells))
	}

	prof := dataset.Profile{
		Rows:            t.Height(),
		Columns:         t.Width(),
		ColumnNames:     append([]string(nil), t.Columns...),
		ColumnTypes:     make(map[string]dataset.ColumnType, len(t.Columns)),
		MissingByColumn: make(map[string]uint64, len(t.Columns)),
		Cardinality:     make(map[string]uint64, len(t.Columns)),
		NumericStats:    make(map[string]dataset.ColumnStats),
	}

	var cellBytes uint64
	for ci, name := range t.Columns {
		var (
			missing  uint64
			distinct = make(map[string]struct{})
			values   []string
		)
		for _, row := range t.Rows {
			cell := row[ci]
			cellBytes += uint64(len(cell)) + perCellOverhead
			if p.IsMissing(cell) {
				missing++

				continue
			}
			v := strings.TrimSpace(cell)
			distinct[v] = struct{}{}
			values = append(values, v)
		}

		ctype := p.inferType(values, uint64(len(distinct)), t.Height())
		prof.ColumnTypes[name] = ctype
		prof.MissingByColumn[name] = missing
		prof.MissingValues += missing
		prof.Cardinality[name] = uint64(len(distinct))

		switch ctype {
		case dataset.Numeric:
			prof.NumericColumns++
			if s, ok := numericSummary(values); ok {
				prof.NumericStats[name] = s
			}
		case dataset.Categorical, dataset.Boolean:
			prof.CategoricalColumns++
		}
	}
	prof.MemoryMB = round2(float64(cellBytes) / (1024 * 1024))

	return prof, nil
}

// IsMissing reports whether a raw cell counts as a missing value.
func (p *Profiler) IsMissing(cell string) bool {
	v := strings.TrimSpace(cell)
	if v == "" {
		return true
	}

	return p.missing[strings.ToLower(v)]
}

// inferType applies the per-column policy over non-missing values: boolean
// before numeric so {0,1} columns land boolean, then numeric, datetime,
// categorical under the cardinality threshold, text otherwise.
func (p *Profiler) inferType(values []string, distinct, rows uint64) dataset.ColumnType {
	if len(values) > 0 {
		if isBoolean(values) {
			return dataset.Boolean
		}
		if allNumeric(values) {
			return dataset.Numeric
		}
		if allDatetime(values) {
			return dataset.DateTime
		}
	}

	threshold := p.maxCard
	if byRatio := uint64(p.maxRatio * float64(rows)); byRatio > threshold {
		threshold = byRatio
	}
	if distinct <= threshold {
		return dataset.Categorical
	}

	return dataset.Text
}

func isBoolean(values []string) bool {
	seen := make(map[string]bool, 2)
	for _, v := range values {
		seen[strings.ToLower(v)] = true
		if len(seen) > 2 {
			return false
		}
	}
	for _, domain := range boolDomains {
		extra := false
		for v := range seen {
			if v != domain[0] && v != domain[1] {
				extra = true

				break
			}
		}
		if !extra {
			return true
		}
	}

	return false
}

func allNumeric(values []string) bool {
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}

	return true
}

// allDatetime requires one layout to parse every value, so mixed formats
// stay text.
func allDatetime(values []string) bool {
	for _, layout := range datetimeLayouts {
		ok := true
		for _, v := range values {
			if _, err := time.Parse(layout, v); err != nil {
				ok = false

				break
			}
		}
		if ok {
			return true
		}
	}

	return false
}

func numericSummary(values []string) (dataset.ColumnStats, bool) {
	fs := make([]float64, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return dataset.ColumnStats{}, false
		}
		fs = append(fs, f)
	}
	if len(fs) == 0 {
		return dataset.ColumnStats{}, false
	}

	mean, _ := stats.Mean(fs)
	std, err := stats.StandardDeviationSample(fs)
	if err != nil {
		std = 0
	}
	lo, _ := stats.Min(fs)
	hi, _ := stats.Max(fs)

	return dataset.ColumnStats{
		Mean: round2(mean),
		Std:  round2(std),
		Min:  lo,
		Max:  hi,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
