package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

// Table is a raw tabular dataset: an ordered header plus string cells. Type
// interpretation is left to the profiler.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Read parses CSV content. The first record is the header; every following
// record must match its width.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.Join(pkgerrors.ErrInvalidDataset, errors.New("empty file"))
	}
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrInvalidDataset, err)
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, errors.Join(pkgerrors.ErrInvalidDataset, fmt.Errorf("duplicate column %q", name))
		}
		seen[name] = true
	}

	t := &Table{Columns: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Join(pkgerrors.ErrInvalidDataset, err)
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

// Load reads the CSV file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

func (t *Table) Width() uint64 {
	return uint64(len(t.Columns))
}

func (t *Table) Height() uint64 {
	return uint64(len(t.Rows))
}

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}

	return 0, false
}

// Column returns the cells of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	idx, ok := t.Index(name)
	if !ok {
		return nil, false
	}
	cells := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}

	return cells, true
}
