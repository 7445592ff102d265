package recast

import (
	"fmt"

	"github.com/gorustyt/gonavregion/common"
	"go.uber.org/zap"
)

const (
	RC_SPAN_MAX_HEIGHT = 0xffff
	rcMaxSpanClearance = 0xff
)

// / Represents a span of solid space in a heightfield column.
type RcSpan struct {
	Smin int ///< The lower limit of the span. [Limit: < #Smax]
	Smax int ///< The upper limit of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT]
	Area int ///< The area id assigned to the span.
}

// / A dynamic heightfield representing obstructed space.
// / Columns keep their spans sorted by Smin and never overlapping.
type RcHeightfield struct {
	Width   int         ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height  int         ///< The height of the heightfield. (Along the z-axis in cell units.)
	Bmin    common.Vec3 ///< The minimum bounds in world space.
	Bmax    common.Vec3 ///< The maximum bounds in world space.
	Cs      float64     ///< The size of each cell. (On the xz-plane.)
	Ch      float64     ///< The height of each cell. (The minimum increment along the y-axis.)
	Columns [][]RcSpan  ///< Solid spans per column. [Size: #Width*#Height]
}

func RcCreateHeightfield(sizeX, sizeZ int, minBounds, maxBounds common.Vec3, cellSize, cellHeight float64) *RcHeightfield {
	return &RcHeightfield{
		Width:   sizeX,
		Height:  sizeZ,
		Bmin:    minBounds,
		Bmax:    maxBounds,
		Cs:      cellSize,
		Ch:      cellHeight,
		Columns: make([][]RcSpan, sizeX*sizeZ),
	}
}

func RcCalcGridSize(minBounds, maxBounds common.Vec3, cellSize float64) (sizeX, sizeZ int) {
	sizeX = int((maxBounds[0]-minBounds[0])/cellSize + 0.5)
	sizeZ = int((maxBounds[2]-minBounds[2])/cellSize + 0.5)
	return sizeX, sizeZ
}

// RcAddSpan inserts a solid span into column (x, z), merging it with every
// span it overlaps. When the merged tops are within flagMergeThreshold the
// higher area id wins.
func RcAddSpan(hf *RcHeightfield, x, z, smin, smax, areaID, flagMergeThreshold int) error {
	if x < 0 || z < 0 || x >= hf.Width || z >= hf.Height {
		return fmt.Errorf("add span (%d,%d): %w", x, z, ErrSpanOutOfBounds)
	}
	if smin > smax || smin < 0 || smax > RC_SPAN_MAX_HEIGHT {
		return fmt.Errorf("add span [%d,%d]: %w", smin, smax, ErrInvalidSpan)
	}
	newSpan := RcSpan{Smin: smin, Smax: smax, Area: areaID}
	column := hf.Columns[x+z*hf.Width]

	merged := column[:0:0]
	insertAt := -1
	for _, cur := range column {
		if cur.Smin > newSpan.Smax {
			// Completely after the new span.
			if insertAt < 0 {
				insertAt = len(merged)
			}
			merged = append(merged, cur)
			continue
		}
		if cur.Smax < newSpan.Smin {
			// Completely before the new span.
			merged = append(merged, cur)
			continue
		}
		// Overlap: fold the existing span into the new one.
		if cur.Smin < newSpan.Smin {
			newSpan.Smin = cur.Smin
		}
		if cur.Smax > newSpan.Smax {
			newSpan.Smax = cur.Smax
		}
		// Higher area ID numbers indicate higher resolution priority.
		if common.Abs(newSpan.Smax-cur.Smax) <= flagMergeThreshold {
			newSpan.Area = max(newSpan.Area, cur.Area)
		}
	}
	if insertAt < 0 {
		insertAt = len(merged)
	}
	merged = append(merged, RcSpan{})
	copy(merged[insertAt+1:], merged[insertAt:])
	merged[insertAt] = newSpan
	hf.Columns[x+z*hf.Width] = merged
	return nil
}

// RcBuildCompactHeightfield converts the solid heightfield into the open
// space above every walkable span and links each span to the neighbour it
// can step onto in the four cardinal directions.
func RcBuildCompactHeightfield(ctx *RcContext, walkableHeight, walkableClimb int, hf *RcHeightfield) (*RcCompactHeightfield, error) {
	defer ctx.scopedTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)()

	xSize := hf.Width
	zSize := hf.Height
	if len(hf.Columns) != xSize*zSize {
		return nil, fmt.Errorf("build compact heightfield: %d columns for a %dx%d grid: %w",
			len(hf.Columns), xSize, zSize, ErrSpanOutOfBounds)
	}
	counts := make([]int, xSize*zSize)
	for c, column := range hf.Columns {
		for _, span := range column {
			if span.Area != RC_NULL_AREA {
				counts[c]++
			}
		}
	}
	chf := NewRcCompactHeightfield(xSize, zSize, counts)
	chf.WalkableHeight = walkableHeight
	chf.WalkableClimb = walkableClimb
	chf.Bmin = hf.Bmin
	chf.Bmax = hf.Bmax
	chf.Bmax[1] += float64(walkableHeight) * hf.Ch
	chf.Cs = hf.Cs
	chf.Ch = hf.Ch

	// Fill in cells and spans.
	for c, column := range hf.Columns {
		i := chf.Cells[c].Index
		for k, span := range column {
			if span.Area == RC_NULL_AREA {
				continue
			}
			bot := span.Smax
			top := RC_SPAN_MAX_HEIGHT
			if k+1 < len(column) {
				top = column[k+1].Smin
			}
			chf.Spans[i] = newRcCompactSpan(common.Clamp(bot, 0, RC_SPAN_MAX_HEIGHT), common.Clamp(top-bot, 0, rcMaxSpanClearance))
			chf.Areas[i] = span.Area
			i++
		}
	}

	// Find neighbour connections.
	links := 0
	chf.forEachSpan(func(x, z, i int) {
		span := &chf.Spans[i]
		for dir := 0; dir < 4; dir++ {
			nx := x + common.GetDirOffsetX(dir)
			nz := z + common.GetDirOffsetY(dir)
			if nx < 0 || nz < 0 || nx >= xSize || nz >= zSize {
				continue
			}
			// Pick the first neighbour span that is reachable from this one.
			ncell := chf.Cells[nx+nz*xSize]
			for k := ncell.Index; k < ncell.Index+ncell.Count; k++ {
				nspan := &chf.Spans[k]
				bot := max(span.Y, nspan.Y)
				top := min(span.Y+span.H, nspan.Y+nspan.H)
				// The gap must fit the agent and the step must be climbable.
				if top-bot >= walkableHeight && common.Abs(nspan.Y-span.Y) <= walkableClimb {
					span.SetCon(dir, k-ncell.Index)
					links++
					break
				}
			}
		}
	})

	ctx.Log(RC_LOG_PROGRESS, "built compact heightfield",
		zap.Int("width", xSize), zap.Int("height", zSize),
		zap.Int("spans", chf.SpanCount), zap.Int("links", links))
	return chf, nil
}
