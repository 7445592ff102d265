package recast

import (
	"errors"
	"sort"
	"testing"

	"github.com/gorustyt/gonavregion/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partitionFunc func(chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error

var partitions = map[string]partitionFunc{
	"watershed": func(chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error {
		_, err := RcBuildRegions(nil, chf, borderSize, minRegionArea, mergeRegionArea)
		return err
	},
	"monotone": func(chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error {
		_, err := RcBuildRegionsMonotone(nil, chf, borderSize, minRegionArea, mergeRegionArea)
		return err
	},
	"layers": func(chf *RcCompactHeightfield, borderSize, minRegionArea, _ int) error {
		return RcBuildLayerRegions(nil, chf, borderSize, minRegionArea)
	},
}

func buildRegions(t *testing.T, fn partitionFunc, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) {
	t.Helper()
	require.NoError(t, RcBuildDistanceField(nil, chf))
	require.NoError(t, fn(chf, borderSize, minRegionArea, mergeRegionArea))
}

// regionIDSet returns the sorted distinct non-border region ids in use.
func regionIDSet(chf *RcCompactHeightfield) []int {
	seen := map[int]bool{}
	for i := range chf.Spans {
		reg := chf.Spans[i].Reg
		if reg != 0 && reg&RC_BORDER_REG == 0 {
			seen[reg] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func regAt(t *testing.T, chf *RcCompactHeightfield, x, z int) int {
	t.Helper()
	return chf.Spans[spanAt(t, chf, x, z)].Reg
}

var obstacleRows = []string{
	"............",
	"....##......",
	"....##...#..",
	"..........#.",
	".111........",
	".111...22...",
	".111...22...",
	"......#.....",
	"...#........",
	"............",
}

func TestBuildRegionsSingleRegion5x5(t *testing.T) {
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, uniformRows(5, 5, '.')...)
			buildRegions(t, fn, chf, 0, 0, 0)
			assert.Equal(t, 1, chf.MaxRegions)
			for i := range chf.Spans {
				assert.Equal(t, 1, chf.Spans[i].Reg, "span %d", i)
			}
		})
	}
}

func TestBuildRegionsThinStrip(t *testing.T) {
	// Every span of a two-wide strip is a boundary seed, so the
	// distance field is flat zero.
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, uniformRows(5, 2, '.')...)
			buildRegions(t, fn, chf, 0, 0, 0)
			assert.Zero(t, chf.MaxDistance)
			assert.Equal(t, 1, chf.MaxRegions)
			for i := range chf.Spans {
				assert.Equal(t, 1, chf.Spans[i].Reg, "span %d", i)
			}
		})
	}
}

func TestBuildRegionsTwoIslands(t *testing.T) {
	rows := []string{
		"...#...",
		"...#...",
		"...#...",
		"...#...",
		"...#...",
	}
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, rows...)
			buildRegions(t, fn, chf, 0, 0, 0)
			assert.Equal(t, 2, chf.MaxRegions)

			left := regAt(t, chf, 0, 0)
			right := regAt(t, chf, 6, 0)
			assert.NotEqual(t, left, right)

			// The wall keeps the islands out of each other's contour.
			arena := buildRegionArena(chf, chf.RegionIDs(), chf.MaxRegions+1)
			assert.NotContains(t, arena[left].connections, right)
			assert.NotContains(t, arena[right].connections, left)
			for z := 0; z < 5; z++ {
				for x := 0; x < 7; x++ {
					switch {
					case x < 3:
						assert.Equal(t, left, regAt(t, chf, x, z))
					case x > 3:
						assert.Equal(t, right, regAt(t, chf, x, z))
					}
				}
			}
		})
	}
}

func TestBuildRegionsIDsAreContiguous(t *testing.T) {
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, obstacleRows...)
			buildRegions(t, fn, chf, 1, 2, 6)

			ids := regionIDSet(chf)
			require.Len(t, ids, chf.MaxRegions)
			for k, id := range ids {
				assert.Equal(t, k+1, id)
			}
		})
	}
}

func TestBuildRegionsNeverMixAreas(t *testing.T) {
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, obstacleRows...)
			buildRegions(t, fn, chf, 0, 0, 1000)

			areaOf := map[int]int{}
			for i := range chf.Spans {
				reg := chf.Spans[i].Reg
				if reg == 0 {
					continue
				}
				if area, ok := areaOf[reg]; ok {
					assert.Equal(t, area, chf.Areas[i], "region %d spans two areas", reg)
				} else {
					areaOf[reg] = chf.Areas[i]
				}
			}
			assert.GreaterOrEqual(t, len(areaOf), 3)
		})
	}
}

func TestBuildRegionsIsIdempotent(t *testing.T) {
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			base := buildField(t, obstacleRows...)
			a := base.Clone()
			b := base.Clone()
			buildRegions(t, fn, a, 1, 2, 6)
			buildRegions(t, fn, b, 1, 2, 6)
			assert.Equal(t, a.RegionIDs(), b.RegionIDs())
			assert.Equal(t, a.MaxRegions, b.MaxRegions)

			// Rebuilding on the labelled field gives the same answer.
			buildRegions(t, fn, b, 1, 2, 6)
			assert.Equal(t, a.RegionIDs(), b.RegionIDs())
		})
	}
}

func TestBuildRegionsBorder(t *testing.T) {
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, uniformRows(7, 7, '.')...)
			buildRegions(t, fn, chf, 1, 0, 0)
			assert.Equal(t, 1, chf.BorderSize)

			assert.Equal(t, 1|RC_BORDER_REG, regAt(t, chf, 0, 3))
			assert.Equal(t, 2|RC_BORDER_REG, regAt(t, chf, 6, 3))
			assert.Equal(t, 3|RC_BORDER_REG, regAt(t, chf, 3, 0))
			assert.Equal(t, 3|RC_BORDER_REG, regAt(t, chf, 0, 0))
			assert.Equal(t, 4|RC_BORDER_REG, regAt(t, chf, 3, 6))
			assert.Equal(t, 4|RC_BORDER_REG, regAt(t, chf, 6, 6))

			for z := 1; z < 6; z++ {
				for x := 1; x < 6; x++ {
					reg := regAt(t, chf, x, z)
					assert.Zero(t, reg&RC_BORDER_REG, "(%d,%d)", x, z)
					assert.Positive(t, reg, "(%d,%d)", x, z)
				}
			}
			assert.Equal(t, []int{1}, regionIDSet(chf))
		})
	}
}

func TestBuildRegionsRemovesSmallIslands(t *testing.T) {
	rows := []string{
		"......#..",
		"......#..",
		"......#..",
		"......#..",
	}
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf := buildField(t, rows...)
			buildRegions(t, fn, chf, 0, 10, 0)
			assert.Equal(t, 1, chf.MaxRegions)
			assert.Equal(t, 1, regAt(t, chf, 0, 0))
			assert.Zero(t, regAt(t, chf, 8, 0), "8 span island is below the minimum")
		})
	}
}

func TestBuildRegionsStackedFloors(t *testing.T) {
	hf := RcCreateHeightfield(3, 3, common.Vec3{}, common.Vec3{3, 10, 3}, 1, 1)
	for z := 0; z < 3; z++ {
		for x := 0; x < 3; x++ {
			require.NoError(t, RcAddSpan(hf, x, z, 0, 1, RC_WALKABLE_AREA, 1))
			require.NoError(t, RcAddSpan(hf, x, z, 5, 6, RC_WALKABLE_AREA, 1))
		}
	}
	for name, fn := range partitions {
		t.Run(name, func(t *testing.T) {
			chf, err := RcBuildCompactHeightfield(nil, 2, 1, hf)
			require.NoError(t, err)
			buildRegions(t, fn, chf, 0, 0, 0)
			require.Equal(t, 2, chf.MaxRegions)

			lower := chf.Spans[chf.Cells[0].Index].Reg
			upper := chf.Spans[chf.Cells[0].Index+1].Reg
			assert.NotEqual(t, lower, upper)
			for _, c := range chf.Cells {
				assert.Equal(t, lower, chf.Spans[c.Index].Reg)
				assert.Equal(t, upper, chf.Spans[c.Index+1].Reg)
			}
		})
	}
}

func TestBuildRegionsReportsSelfOverlap(t *testing.T) {
	// Column (0,0) holds two spans of region 1, column (1,0) one span of
	// region 2 connected to the lower span.
	chf := NewRcCompactHeightfield(2, 1, []int{2, 1})
	chf.Spans[0] = newRcCompactSpan(0, 10)
	chf.Spans[1] = newRcCompactSpan(10, 10)
	chf.Spans[2] = newRcCompactSpan(0, 10)
	chf.Spans[0].SetCon(2, 0)
	chf.Spans[2].SetCon(0, 0)
	for i := range chf.Areas {
		chf.Areas[i] = RC_WALKABLE_AREA
	}
	srcReg := []int{1, 1, 2}

	maxRegions, overlaps := mergeAndFilterRegions(nil, 0, 20, 3, chf, srcReg)

	// Region 2 would normally be absorbed into its only neighbour, but an
	// overlapping region is never a merge target.
	assert.Equal(t, 2, maxRegions)
	assert.Equal(t, []int{1}, overlaps)
	assert.Equal(t, []int{1, 1, 2}, srcReg)
}

func TestRemoveSmallRegionsKeepsBorderGroups(t *testing.T) {
	regions := newRegionArena(4)
	regions[1].spanCount = 2
	regions[1].connections = []int{2}
	regions[2].spanCount = 2
	regions[2].connections = []int{1, 1 | RC_BORDER_REG}
	regions[3].spanCount = 1
	regions[3].connections = []int{0}

	removeSmallRegions(regions, 10)

	assert.False(t, regions[1].connectsToBorder)
	assert.True(t, regions[2].connectsToBorder)
	assert.Equal(t, 1, regions[1].id)
	assert.Equal(t, 2, regions[2].spanCount)
	assert.Zero(t, regions[3].id)
	assert.Zero(t, regions[3].spanCount)
}

func TestMergeSmallRegionIntoNeighbour(t *testing.T) {
	// Same layout as the overlap case without the stacked span.
	chf := NewRcCompactHeightfield(2, 1, []int{1, 1})
	chf.Spans[0] = newRcCompactSpan(0, 10)
	chf.Spans[1] = newRcCompactSpan(0, 10)
	chf.Spans[0].SetCon(2, 0)
	chf.Spans[1].SetCon(0, 0)
	for i := range chf.Areas {
		chf.Areas[i] = RC_WALKABLE_AREA
	}
	srcReg := []int{1, 2}

	maxRegions, overlaps := mergeAndFilterRegions(nil, 0, 20, 3, chf, srcReg)
	assert.Equal(t, 1, maxRegions)
	assert.Empty(t, overlaps)
	assert.Equal(t, []int{1, 1}, srcReg)
}

func TestBuildRegionsRequiresDistanceField(t *testing.T) {
	chf := buildField(t, uniformRows(3, 3, '.')...)
	_, err := RcBuildRegions(nil, chf, 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidLayout)
}

func TestMonotoneRegionIDOverflow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a 256x256 checkerboard")
	}
	const size = 256
	rows := make([]string, size)
	for z := range rows {
		row := make([]byte, size)
		for x := range row {
			row[x] = "12"[(x+z)%2]
		}
		rows[z] = string(row)
	}
	chf := buildField(t, rows...)
	_, err := RcBuildRegionsMonotone(nil, chf, 0, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegionIDOverflow))
}

func TestWalkContour(t *testing.T) {
	chf := buildField(t, "...")
	srcReg := []int{1, 2, 3}
	cont := walkContour(1, 0, 1, 0, chf, srcReg)
	assert.Equal(t, []int{1, 0, 3, 0}, cont)
}
