package chart

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-grocer/models"
	"smart-grocer/utils"
)

func slice(label, value, color string) models.Slice {
	return models.Slice{Label: label, Value: decimal.RequireFromString(value), Color: color}
}

func TestPieHTML(t *testing.T) {
	tests := []struct {
		name       string
		slices     []models.Slice
		wantPaths  int
		wantCircle bool
		wantText   []string
	}{
		{
			name:      "two wedges",
			slices:    []models.Slice{slice("Spent (cart)", "30", "#ef4444"), slice("Remaining budget", "70", "#22c55e")},
			wantPaths: 2,
			wantText:  []string{"Spent (cart): 30.00", "Remaining budget: 70.00"},
		},
		{
			name:       "single full slice",
			slices:     []models.Slice{slice("Planned (list)", "100", "#3b82f6"), slice("Available for list", "0", "#9ca3af")},
			wantPaths:  0,
			wantCircle: true,
			wantText:   []string{"Available for list: 0.00"},
		},
		{
			name:       "all zero",
			slices:     []models.Slice{slice("A", "0", "#3b82f6"), slice("B", "0", "#9ca3af")},
			wantPaths:  0,
			wantCircle: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := PieHTML("Budget", tc.slices)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPaths, strings.Count(page, "<path "))
			assert.Equal(t, tc.wantCircle, strings.Contains(page, "<circle "))
			for _, s := range tc.wantText {
				assert.Contains(t, page, s)
			}
		})
	}
}

func TestPieHTMLEscapesTitle(t *testing.T) {
	page, err := PieHTML("<script>x</script>", nil)
	require.NoError(t, err)
	assert.NotContains(t, page, "<script>")
}

func TestArcPathLargeFlag(t *testing.T) {
	assert.Contains(t, arcPath(0, 1), " 0 0,1 ")
	assert.Contains(t, arcPath(0, 4), " 0 1,1 ")
}

func TestRenderWithoutBrowser(t *testing.T) {
	r := &Renderer{logger: utils.NewNopLogger()}
	err := r.Render(context.Background(), "x", nil, t.TempDir()+"/x.png")
	assert.ErrorIs(t, err, ErrNoBrowser)
}
