package recast

import "github.com/gorustyt/gonavregion/common"

// spanTop is the floor of the span above k in column, or the ceiling of the
// heightfield.
func spanTop(column []RcSpan, k int) int {
	if k+1 < len(column) {
		return column[k+1].Smin
	}
	return RC_SPAN_MAX_HEIGHT
}

// RcFilterLowHangingWalkableObstacles marks a non-walkable span walkable when
// it sits within walkableClimb of a walkable span directly below it, so the
// agent can step onto curbs and stairs.
func RcFilterLowHangingWalkableObstacles(ctx *RcContext, walkableClimb int, hf *RcHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_FILTER_LOW_OBSTACLES)()

	for _, column := range hf.Columns {
		previousWasWalkable := false
		previousArea := RC_NULL_AREA
		previousSmax := 0
		for k := range column {
			span := &column[k]
			walkable := span.Area != RC_NULL_AREA
			if !walkable && previousWasWalkable && common.Abs(span.Smax-previousSmax) <= walkableClimb {
				span.Area = previousArea
			}
			// Copy the original flag so it cannot propagate past several obstacles.
			previousWasWalkable = walkable
			previousArea = span.Area
			previousSmax = span.Smax
		}
	}
}

// RcFilterLedgeSpans removes walkable spans whose drop to any neighbour is
// more than walkableClimb, and spans on slopes steeper than walkableClimb
// between their accessible neighbours. Cells on the grid edge count as ledges.
func RcFilterLedgeSpans(ctx *RcContext, walkableHeight, walkableClimb int, hf *RcHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_FILTER_BORDER)()

	xSize := hf.Width
	zSize := hf.Height
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			column := hf.Columns[x+z*xSize]
			for k := range column {
				span := &column[k]
				if span.Area == RC_NULL_AREA {
					continue
				}
				bot := span.Smax
				top := spanTop(column, k)

				minNeighborHeight := RC_SPAN_MAX_HEIGHT
				accessibleMin := span.Smax
				accessibleMax := span.Smax

				for dir := 0; dir < 4; dir++ {
					dx := x + common.GetDirOffsetX(dir)
					dz := z + common.GetDirOffsetY(dir)
					if dx < 0 || dz < 0 || dx >= xSize || dz >= zSize {
						minNeighborHeight = min(minNeighborHeight, -walkableClimb-bot)
						continue
					}
					neighbors := hf.Columns[dx+dz*xSize]

					// From minus infinity to the first span.
					neighborBot := -walkableClimb
					neighborTop := RC_SPAN_MAX_HEIGHT
					if len(neighbors) > 0 {
						neighborTop = neighbors[0].Smin
					}
					if min(top, neighborTop)-max(bot, neighborBot) > walkableHeight {
						minNeighborHeight = min(minNeighborHeight, neighborBot-bot)
					}

					for n := range neighbors {
						neighborBot = neighbors[n].Smax
						neighborTop = spanTop(neighbors, n)
						if min(top, neighborTop)-max(bot, neighborBot) <= walkableHeight {
							continue
						}
						minNeighborHeight = min(minNeighborHeight, neighborBot-bot)
						if common.Abs(neighborBot-bot) <= walkableClimb {
							accessibleMin = min(accessibleMin, neighborBot)
							accessibleMax = max(accessibleMax, neighborBot)
						}
					}
				}

				if minNeighborHeight < -walkableClimb || accessibleMax-accessibleMin > walkableClimb {
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}

// RcFilterWalkableLowHeightSpans removes the walkable flag from spans without
// walkableHeight of clearance above them.
func RcFilterWalkableLowHeightSpans(ctx *RcContext, walkableHeight int, hf *RcHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_FILTER_WALKABLE)()

	for _, column := range hf.Columns {
		for k := range column {
			if spanTop(column, k)-column[k].Smax < walkableHeight {
				column[k].Area = RC_NULL_AREA
			}
		}
	}
}
