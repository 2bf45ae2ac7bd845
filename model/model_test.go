package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/baseliner/model"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

func TestCatalog(t *testing.T) {
	specs := model.Catalog()
	require.Len(t, specs, 3)

	assert.Equal(t, model.LogisticRegression, specs[0].Name)
	assert.Equal(t, model.RandomForest, specs[1].Name)
	assert.Equal(t, model.GradientBoosting, specs[2].Name)

	specs[0].Weight = 99
	assert.Equal(t, 1.0, model.Catalog()[0].Weight, "callers get a copy")
}

func TestLookup(t *testing.T) {
	spec, err := model.Lookup(model.RandomForest)
	require.NoError(t, err)
	assert.Equal(t, "Random Forest", spec.DisplayName)
	assert.Equal(t, 3.0, spec.Weight)
	assert.True(t, spec.SupportsClassWeight)
	assert.False(t, spec.ScalingSensitive)

	_, err = model.Lookup("svm")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownModel)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{
		model.LogisticRegression,
		model.RandomForest,
		model.GradientBoosting,
	}, model.Names())
}

func TestMaxWeight(t *testing.T) {
	assert.Equal(t, 4.0, model.MaxWeight(), "gradient boosting is the heaviest model")
}
