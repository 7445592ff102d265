package recast

import (
	"testing"

	"github.com/gorustyt/gonavregion/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func areaGrid(t testing.TB, chf *RcCompactHeightfield) [][]int {
	t.Helper()
	grid := make([][]int, chf.Height)
	for z := range grid {
		grid[z] = make([]int, chf.Width)
		for x := range grid[z] {
			c := chf.Cells[x+z*chf.Width]
			if c.Count == 0 {
				grid[z][x] = -1
				continue
			}
			grid[z][x] = chf.Areas[c.Index]
		}
	}
	return grid
}

func TestAreaModificationApply(t *testing.T) {
	mod := RcAreaModification{Value: 0x05, Mask: 0x0f}
	assert.Equal(t, 0x35, mod.Apply(0x3f))
	assert.Equal(t, RC_NULL_AREA, mod.Apply(RC_NULL_AREA))
	assert.Equal(t, 7, RcReplaceArea(7).Apply(RC_WALKABLE_AREA))
}

func TestErodeWalkableArea(t *testing.T) {
	t.Run("radius 1 removes the outer ring", func(t *testing.T) {
		chf := buildField(t, uniformRows(7, 7, '.')...)
		RcErodeWalkableArea(nil, 1, chf)
		for z, row := range areaGrid(t, chf) {
			for x, area := range row {
				onEdge := x == 0 || z == 0 || x == 6 || z == 6
				if onEdge {
					assert.Equal(t, RC_NULL_AREA, area, "(%d,%d)", x, z)
				} else {
					assert.Equal(t, RC_WALKABLE_AREA, area, "(%d,%d)", x, z)
				}
			}
		}
	})

	t.Run("radius 2 keeps cells at distance four", func(t *testing.T) {
		chf := buildField(t, uniformRows(7, 7, '.')...)
		RcErodeWalkableArea(nil, 2, chf)
		for z, row := range areaGrid(t, chf) {
			for x, area := range row {
				inner := x >= 2 && x <= 4 && z >= 2 && z <= 4
				if inner {
					assert.Equal(t, RC_WALKABLE_AREA, area, "(%d,%d)", x, z)
				} else {
					assert.Equal(t, RC_NULL_AREA, area, "(%d,%d)", x, z)
				}
			}
		}
	})

	t.Run("area changes are boundaries", func(t *testing.T) {
		chf := buildField(t,
			"111...",
			"111...",
			"111...",
			"111...",
		)
		RcErodeWalkableArea(nil, 1, chf)
		want := [][]int{
			{0, 0, 0, 0, 0, 0},
			{0, 1, 0, 0, RC_WALKABLE_AREA, 0},
			{0, 1, 0, 0, RC_WALKABLE_AREA, 0},
			{0, 0, 0, 0, 0, 0},
		}
		assert.Equal(t, want, areaGrid(t, chf))
	})

	t.Run("radius 0 keeps everything", func(t *testing.T) {
		chf := buildField(t, uniformRows(4, 4, '.')...)
		RcErodeWalkableArea(nil, 0, chf)
		for _, area := range chf.Areas {
			assert.Equal(t, RC_WALKABLE_AREA, area)
		}
	})
}

func TestMedianFilterWalkableArea(t *testing.T) {
	chf := buildField(t,
		".....",
		".....",
		"..5..",
		".....",
		".....",
	)
	chf.Areas[spanAt(t, chf, 0, 0)] = RC_NULL_AREA

	RcMedianFilterWalkableArea(nil, chf)
	grid := areaGrid(t, chf)
	assert.Equal(t, RC_WALKABLE_AREA, grid[2][2], "an isolated id is smoothed away")
	assert.Equal(t, RC_NULL_AREA, grid[0][0], "null spans stay null")
	assert.Equal(t, RC_WALKABLE_AREA, grid[1][1])
}

func TestMarkBoxArea(t *testing.T) {
	chf := buildField(t, uniformRows(5, 5, '.')...)
	chf.Areas[spanAt(t, chf, 2, 2)] = RC_NULL_AREA

	RcMarkBoxArea(nil, common.Vec3{1, 0, 1}, common.Vec3{2.9, 5, 2.9}, RcReplaceArea(5), chf)
	grid := areaGrid(t, chf)
	for z := 0; z < 5; z++ {
		for x := 0; x < 5; x++ {
			switch {
			case x == 2 && z == 2:
				assert.Equal(t, RC_NULL_AREA, grid[z][x], "null spans are never marked")
			case x >= 1 && x <= 2 && z >= 1 && z <= 2:
				assert.Equal(t, 5, grid[z][x], "(%d,%d)", x, z)
			default:
				assert.Equal(t, RC_WALKABLE_AREA, grid[z][x], "(%d,%d)", x, z)
			}
		}
	}

	t.Run("above the spans", func(t *testing.T) {
		chf := buildField(t, uniformRows(5, 5, '.')...)
		RcMarkBoxArea(nil, common.Vec3{0, 5, 0}, common.Vec3{5, 8, 5}, RcReplaceArea(5), chf)
		for _, area := range chf.Areas {
			assert.Equal(t, RC_WALKABLE_AREA, area)
		}
	})

	t.Run("outside the grid", func(t *testing.T) {
		chf := buildField(t, uniformRows(5, 5, '.')...)
		RcMarkBoxArea(nil, common.Vec3{6, 0, 0}, common.Vec3{9, 5, 5}, RcReplaceArea(5), chf)
		for _, area := range chf.Areas {
			assert.Equal(t, RC_WALKABLE_AREA, area)
		}
	})
}

func TestMarkConvexPolyArea(t *testing.T) {
	chf := buildField(t, uniformRows(5, 5, '.')...)
	square := []common.Vec3{
		{0.9, 0, 0.9},
		{3.1, 0, 0.9},
		{3.1, 0, 3.1},
		{0.9, 0, 3.1},
	}
	RcMarkConvexPolyArea(nil, square, 0, 5, RcReplaceArea(3), chf)

	marked := 0
	for z, row := range areaGrid(t, chf) {
		for x, area := range row {
			inside := x >= 1 && x <= 2 && z >= 1 && z <= 2
			if inside {
				assert.Equal(t, 3, area, "(%d,%d)", x, z)
				marked++
			} else {
				assert.Equal(t, RC_WALKABLE_AREA, area, "(%d,%d)", x, z)
			}
		}
	}
	assert.Equal(t, 4, marked)
}

func TestMarkCylinderArea(t *testing.T) {
	t.Run("outside the grid is a no-op", func(t *testing.T) {
		chf := buildField(t, uniformRows(5, 5, '.')...)
		before := append([]int(nil), chf.Areas...)
		RcMarkCylinderArea(nil, common.Vec3{-10, 0, -10}, 1, 2, RcReplaceArea(4), chf)
		assert.Equal(t, before, chf.Areas)
	})

	t.Run("marks the disk", func(t *testing.T) {
		chf := buildField(t, uniformRows(5, 5, '.')...)
		RcMarkCylinderArea(nil, common.Vec3{2.5, 0, 2.5}, 1.2, 2, RcReplaceArea(4), chf)
		for z, row := range areaGrid(t, chf) {
			for x, area := range row {
				dx, dz := x-2, z-2
				if common.Abs(dx)+common.Abs(dz) <= 1 {
					assert.Equal(t, 4, area, "(%d,%d)", x, z)
				} else {
					assert.Equal(t, RC_WALKABLE_AREA, area, "(%d,%d)", x, z)
				}
			}
		}
	})
}

func TestOffsetPoly(t *testing.T) {
	square := []common.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{1, 0, 1},
		{0, 0, 1},
	}
	out := RcOffsetPoly(square, 0.5)
	// Every right-angle corner gets bevelled into two vertices.
	require.Len(t, out, 8)
	for _, v := range out {
		dist := max(common.Abs(v[0]-0.5), common.Abs(v[2]-0.5))
		assert.InDelta(t, 1.0, dist, 1e-9, "%v", v)
	}

	// Opposite winding moves the corners inwards instead.
	reversed := []common.Vec3{square[0], square[3], square[2], square[1]}
	shrunk := RcOffsetPoly(reversed, 0.25)
	require.Len(t, shrunk, 4)
	for _, v := range shrunk {
		assert.InDelta(t, 0.25, common.Abs(v[0]-0.5), 1e-9, "%v", v)
		assert.InDelta(t, 0.25, common.Abs(v[2]-0.5), 1e-9, "%v", v)
	}
}
