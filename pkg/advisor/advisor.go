package advisor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/absmach/baseliner/dataset"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/profiler"
	"github.com/absmach/baseliner/pkg/table"
)

const (
	defLeakageThreshold = 0.98
	defMissingThreshold = 0.9
	defHighCardinality  = 100
)

type verdict uint8

const (
	ignore verdict = iota
	noteOnly
)

// column is the per-column view a rule predicate evaluates.
type column struct {
	name        string
	ctype       dataset.ColumnType
	cardinality uint64
	missing     uint64
	rows        uint64
	cells       []string
	target      []string
}

// rule is one predicate in the ordered advice list. The first matching
// rule decides a column's fate; rule precedence is the slice order.
type rule struct {
	name    string
	verdict verdict
	note    string
	match   func(c column) bool
}

type Config struct {
	// LeakageThreshold is the minimum row-wise consistency with a bijective
	// value mapping onto the target for a column to count as leaking it.
	LeakageThreshold float64
	// MissingThreshold is the missing fraction above which a column is
	// flagged as mostly missing.
	MissingThreshold float64
	// HighCardinality is the distinct count above which a kept categorical
	// or text column gets a note.
	HighCardinality uint64
	MissingTokens   []string
}

type Advisor struct {
	leakage  float64
	missing  float64
	highCard uint64
	tokens   map[string]bool
	rules    []rule
}

func New(cfg Config) *Advisor {
	if cfg.LeakageThreshold == 0 {
		cfg.LeakageThreshold = defLeakageThreshold
	}
	if cfg.MissingThreshold == 0 {
		cfg.MissingThreshold = defMissingThreshold
	}
	if cfg.HighCardinality == 0 {
		cfg.HighCardinality = defHighCardinality
	}
	if len(cfg.MissingTokens) == 0 {
		cfg.MissingTokens = profiler.DefaultMissingTokens()
	}
	tokens := make(map[string]bool, len(cfg.MissingTokens))
	for _, tok := range cfg.MissingTokens {
		tokens[strings.ToLower(tok)] = true
	}

	a := &Advisor{
		leakage:  cfg.LeakageThreshold,
		missing:  cfg.MissingThreshold,
		highCard: cfg.HighCardinality,
		tokens:   tokens,
	}
	a.rules = []rule{
		{
			name:    "identifier",
			verdict: ignore,
			note:    "looks like a unique identifier",
			match: func(c column) bool {
				return c.rows > 0 && c.cardinality == c.rows &&
					(c.ctype == dataset.Text || c.ctype == dataset.Numeric)
			},
		},
		{
			name:    "constant",
			verdict: ignore,
			note:    "constant column, no predictive value",
			match: func(c column) bool {
				return c.cardinality <= 1
			},
		},
		{
			name:    "leakage",
			verdict: ignore,
			note:    "appears to duplicate or leak the target",
			match: func(c column) bool {
				return a.leaks(c.cells, c.target)
			},
		},
		{
			name:    "missing",
			verdict: ignore,
			note:    "mostly missing",
			match: func(c column) bool {
				return c.rows > 0 && float64(c.missing)/float64(c.rows) >= a.missing
			},
		},
		{
			name:    "high-cardinality",
			verdict: noteOnly,
			note:    "high-cardinality column, may slow down training",
			match: func(c column) bool {
				return c.cardinality > a.highCard &&
					(c.ctype == dataset.Categorical || c.ctype == dataset.Text)
			},
		},
	}

	return a
}

// Suggest classifies every non-target column of the profiled table and
// returns the recommended auto configuration plus a note per flagged
// column. The target lands in neither set. Pure function of its inputs.
func (a *Advisor) Suggest(t *table.Table, prof dataset.Profile, target string) (dataset.ColumnConfig, map[string]string, error) {
	if !prof.HasColumn(target) {
		return dataset.ColumnConfig{}, nil, errors.Join(pkgerrors.ErrUnknownColumn, fmt.Errorf("target column %q", target))
	}
	targetCells, ok := t.Column(target)
	if !ok {
		return dataset.ColumnConfig{}, nil, errors.Join(pkgerrors.ErrUnknownColumn, fmt.Errorf("target column %q", target))
	}

	cfg := dataset.ColumnConfig{
		IgnoreColumns:  []string{},
		FeatureColumns: []string{},
		Source:         dataset.SourceAuto,
	}
	notes := make(map[string]string)

	for _, name := range prof.ColumnNames {
		if name == target {
			continue
		}
		cells, _ := t.Column(name)
		c := column{
			name:        name,
			ctype:       prof.ColumnTypes[name],
			cardinality: prof.Cardinality[name],
			missing:     prof.MissingByColumn[name],
			rows:        prof.Rows,
			cells:       cells,
			target:      targetCells,
		}

		ignored := false
		for _, r := range a.rules {
			if !r.match(c) {
				continue
			}
			notes[name] = r.note
			if r.verdict == ignore {
				ignored = true
			}

			break
		}
		if ignored {
			cfg.IgnoreColumns = append(cfg.IgnoreColumns, name)
		} else {
			cfg.FeatureColumns = append(cfg.FeatureColumns, name)
		}
	}

	return cfg, notes, nil
}

// leaks checks row-wise consistency with a value bijection in both
// directions, over rows where neither cell is missing.
func (a *Advisor) leaks(cells, target []string) bool {
	if len(cells) != len(target) {
		return false
	}
	forward := make(map[string]string)
	backward := make(map[string]string)
	var considered, forwardOK, backwardOK int

	for i := range cells {
		cv := strings.ToLower(strings.TrimSpace(cells[i]))
		tv := strings.ToLower(strings.TrimSpace(target[i]))
		if a.isMissing(cv) || a.isMissing(tv) {
			continue
		}
		considered++

		if mapped, seen := forward[cv]; !seen {
			forward[cv] = tv
			forwardOK++
		} else if mapped == tv {
			forwardOK++
		}
		if mapped, seen := backward[tv]; !seen {
			backward[tv] = cv
			backwardOK++
		} else if mapped == cv {
			backwardOK++
		}
	}
	if considered == 0 {
		return false
	}

	f := float64(forwardOK) / float64(considered)
	b := float64(backwardOK) / float64(considered)

	return f >= a.leakage && b >= a.leakage
}

func (a *Advisor) isMissing(v string) bool {
	return v == "" || a.tokens[v]
}
