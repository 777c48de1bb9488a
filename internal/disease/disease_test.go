package disease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorTable(t *testing.T) {
	all := All()
	require.Len(t, all, 3)

	expected := []struct {
		typ      Type
		file     string
		features int
	}{
		{Diabetes, "datasets/diabetes_model.json", 8},
		{Heart, "datasets/heart_model.json", 13},
		{Parkinson, "datasets/parkinson_model.json", 22},
	}

	for i, e := range expected {
		assert.Equal(t, e.typ, all[i].Type)
		assert.Equal(t, e.file, all[i].File)
		assert.Equal(t, e.features, all[i].FeatureCount)
		assert.Len(t, all[i].Features, e.features, "feature names for %s", e.typ)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].DisplayName = "mutated"

	d, ok := Lookup(Diabetes)
	require.True(t, ok)
	assert.Equal(t, "Diabetes Risk Assessment", d.DisplayName)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("diabetes"))
	assert.True(t, Valid("heart"))
	assert.True(t, Valid("parkinson"))
	assert.False(t, Valid("Diabetes"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("cancer"))
}

func TestValidSet(t *testing.T) {
	assert.Equal(t, "[diabetes heart parkinson]", ValidSet())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Heart Disease Risk Assessment", DisplayName(Heart))
	assert.Equal(t, "Parkinson's Disease Risk Assessment", DisplayName(Parkinson))
	assert.Equal(t, "Kidney", DisplayName(Type("kidney")))
}

func TestDescriptorPaths(t *testing.T) {
	d, _ := Lookup(Parkinson)
	assert.Equal(t, "parkinson_model.json", d.FileName())
	assert.Equal(t, "datasets/", d.Dir())
}
