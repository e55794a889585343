package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Options[domain.ColumnWorkclass], 7)
	assert.Len(t, c.Options[domain.ColumnEducation], 8)
	assert.Len(t, c.Options[domain.ColumnMaritalStatus], 7)
	assert.Len(t, c.Options[domain.ColumnOccupation], 14)
	assert.Len(t, c.Options[domain.ColumnRelationship], 6)
	assert.Len(t, c.Options[domain.ColumnRace], 5)
	assert.Len(t, c.Options[domain.ColumnGender], 2)
	assert.Len(t, c.Options[domain.ColumnNativeCountry], 37)
	assert.True(t, c.Offers(domain.ColumnNativeCountry, "Not-Listed"))

	assert.Equal(t, domain.IntRange{Min: 17, Max: 70, Default: 25}, c.Ranges[domain.ColumnAge])
	assert.Equal(t, domain.IntRange{Min: 1, Max: 80, Default: 40}, c.Ranges[domain.ColumnHoursPerWeek])
	assert.Equal(t, 189664.13459727284, c.Defaults.Fnlwgt)
	assert.Zero(t, c.Defaults.CapitalGain)
	assert.Zero(t, c.Defaults.CapitalLoss)

	for _, education := range c.Options[domain.ColumnEducation] {
		_, ok := c.EducationNumber(education)
		assert.True(t, ok, "education %q has no number", education)
	}
	n, _ := c.EducationNumber("Bachelors")
	assert.Equal(t, 13, n)
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Options)
}

func TestLoadFileOverride(t *testing.T) {
	raw, err := os.ReadFile("catalog.yaml")
	require.NoError(t, err)
	trimmed := strings.Replace(string(raw), "gender: [Male, Female]", "gender: [Female]", 1)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(trimmed), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Female"}, c.Options[domain.ColumnGender])
}

func TestDecodeRejectsBrokenCatalogs(t *testing.T) {
	cases := map[string]string{
		"unknown column":  "options:\n  salary: [low]\n",
		"unknown field":   "colour: blue\n",
		"missing options": "ranges:\n  age: {min: 17, max: 70}\n",
		"empty":           "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.ErrorIs(t, err, domain.ErrSchema)
		})
	}
}
