package overlap

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/postarit/internal/lib/geo"
)

func TestAreaIndex_Candidates(t *testing.T) {
	areas := []geo.Feature{
		area("east", rect(2000, 0, 3000, 1000)),
		area("origin", rect(0, 0, 100, 100)),
		area("west", rect(-3000, 0, -2000, 1000)),
		area("line", rect(50, 50, 50, 500)),
	}

	index, err := newAreaIndex(areas)
	require.NoError(t, err)

	positions, err := index.candidates(&geom.Bounds{
		Min: geom.Point{X: -10, Y: -10},
		Max: geom.Point{X: 2500, Y: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, positions)

	// Degenerate bounds are padded rather than rejected
	positions, err = index.candidates(&geom.Bounds{
		Min: geom.Point{X: 50, Y: 300},
		Max: geom.Point{X: 50, Y: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, positions)
}
