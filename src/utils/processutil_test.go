package utils

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
)

func TestColumnHelpers(t *testing.T) {
	df := dataframe.New(
		series.New([]interface{}{"iOS", nil, "Android", "iOS"}, series.String, "OS"),
		series.New([]float64{1, math.NaN(), 3, 4}, series.Float, "Facebook"),
	)

	assert.True(t, HasColumn(df, "OS"))
	assert.False(t, HasColumn(df, "Estatus"))
	assert.Equal(t, []string{"Facebook", "OS"}, PresentColumns(df, []string{"Facebook", "TikTok", "OS"}))
	assert.True(t, Contains([]int{1, 2}, 2))

	vals := Floats(df.Col("Facebook"))
	assert.Equal(t, 1.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))

	labels, ok := Labels(df.Col("OS"))
	assert.Equal(t, []string{"iOS", "", "Android", "iOS"}, labels)
	assert.Equal(t, []bool{true, false, true, true}, ok)

	assert.Equal(t, []string{"iOS", "Android"}, Distinct(df.Col("OS")))
}
