package dataset_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/baseliner/dataset"
)

func TestColumnType_String(t *testing.T) {
	cases := []struct {
		ctype    dataset.ColumnType
		expected string
	}{
		{dataset.Numeric, "numeric"},
		{dataset.Categorical, "categorical"},
		{dataset.Boolean, "boolean"},
		{dataset.Text, "text"},
		{dataset.DateTime, "datetime"},
		{dataset.ColumnType(42), "unknown"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, tc.ctype.String())
	}
}

func TestParseColumnType(t *testing.T) {
	ctype, err := dataset.ParseColumnType("Numeric")
	require.NoError(t, err)
	assert.Equal(t, dataset.Numeric, ctype)

	ctype, err = dataset.ParseColumnType("DATETIME")
	require.NoError(t, err)
	assert.Equal(t, dataset.DateTime, ctype)

	_, err = dataset.ParseColumnType("complex")
	assert.Error(t, err)
}

func TestColumnType_JSON(t *testing.T) {
	data, err := json.Marshal(dataset.Boolean)
	require.NoError(t, err)
	assert.Equal(t, `"boolean"`, string(data))

	var ctype dataset.ColumnType
	require.NoError(t, json.Unmarshal([]byte(`"text"`), &ctype))
	assert.Equal(t, dataset.Text, ctype)

	assert.Error(t, json.Unmarshal([]byte(`"imaginary"`), &ctype))
}

func TestProfile_HasColumn(t *testing.T) {
	prof := dataset.Profile{
		ColumnTypes: map[string]dataset.ColumnType{"age": dataset.Numeric},
	}

	assert.True(t, prof.HasColumn("age"))
	assert.False(t, prof.HasColumn("salary"))
	assert.False(t, dataset.Profile{}.HasColumn("age"))
}

func TestColumnConfig_Overlap(t *testing.T) {
	cases := []struct {
		desc     string
		config   dataset.ColumnConfig
		expected []string
	}{
		{
			desc: "disjoint sets",
			config: dataset.ColumnConfig{
				IgnoreColumns:  []string{"id"},
				FeatureColumns: []string{"age", "city"},
			},
			expected: nil,
		},
		{
			desc: "shared columns",
			config: dataset.ColumnConfig{
				IgnoreColumns:  []string{"id", "age"},
				FeatureColumns: []string{"age", "city", "id"},
			},
			expected: []string{"age", "id"},
		},
		{
			desc:     "empty config",
			config:   dataset.ColumnConfig{},
			expected: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.config.Overlap())
		})
	}
}
