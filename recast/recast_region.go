package recast

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	rcLevelStacks     = 8
	rcExpandIters     = 8
	rcLogLevelsPerStk = 1
)

type levelStackEntry struct {
	x     int
	z     int
	index int
}

type dirtyEntry struct {
	index     int
	region    int
	distance2 int
}

func paintRectRegion(minx, maxx, minz, maxz, regID int, chf *RcCompactHeightfield, srcReg []int) {
	w := chf.Width
	for z := minz; z < maxz; z++ {
		for x := minx; x < maxx; x++ {
			c := chf.Cells[x+z*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if chf.Areas[i] != RC_NULL_AREA {
					srcReg[i] = regID
				}
			}
		}
	}
}

// paintBorderRegions labels the four border strips with their own flagged
// region ids and returns the next free id.
func paintBorderRegions(chf *RcCompactHeightfield, borderSize, id int, srcReg []int) int {
	if borderSize <= 0 {
		return id
	}
	w, h := chf.Width, chf.Height
	// Make sure border will not overflow.
	bw := min(w, borderSize)
	bh := min(h, borderSize)
	strips := [4][4]int{
		{0, bw, 0, h},
		{w - bw, w, 0, h},
		{0, w, 0, bh},
		{0, w, h - bh, h},
	}
	for _, r := range strips {
		paintRectRegion(r[0], r[1], r[2], r[3], id|RC_BORDER_REG, chf, srcReg)
		id++
	}
	return id
}

func floodRegion(x, z, i, level, r int, chf *RcCompactHeightfield, srcReg, srcDist []int, stack *Stack[levelStackEntry]) bool {
	area := chf.Areas[i]

	// Flood fill mark region.
	stack.Clear()
	stack.Push(levelStackEntry{x: x, z: z, index: i})
	srcReg[i] = r
	srcDist[i] = 0

	lev := max(level-2, 0)
	count := 0

	for !stack.Empty() {
		back := stack.Pop()
		cx, cz, ci := back.x, back.z, back.index
		cs := &chf.Spans[ci]

		// Check if any of the neighbours already have a valid region set.
		ar := 0
		for dir := 0; dir < 4; dir++ {
			ax, az, ai, ok := chf.neighbor(cx, cz, cs, dir)
			if !ok || chf.Areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr&RC_BORDER_REG != 0 { // Do not take borders into account.
				continue
			}
			if nr != 0 && nr != r {
				ar = nr
				break
			}

			dir2 := (dir + 1) & 0x3
			if _, _, ai2, ok := chf.neighbor(ax, az, &chf.Spans[ai], dir2); ok {
				if chf.Areas[ai2] != area {
					continue
				}
				nr2 := srcReg[ai2]
				if nr2 != 0 && nr2 != r {
					ar = nr2
					break
				}
			}
		}
		if ar != 0 {
			srcReg[ci] = 0
			continue
		}
		count++

		// Expand neighbours.
		for dir := 0; dir < 4; dir++ {
			ax, az, ai, ok := chf.neighbor(cx, cz, cs, dir)
			if !ok || chf.Areas[ai] != area {
				continue
			}
			if chf.Dist[ai] >= lev && srcReg[ai] == 0 {
				srcReg[ai] = r
				srcDist[ai] = 0
				stack.Push(levelStackEntry{x: ax, z: az, index: ai})
			}
		}
	}
	return count > 0
}

func expandRegions(maxIter, level int, chf *RcCompactHeightfield, srcReg, srcDist []int, stack *Stack[levelStackEntry], fillStack bool) {
	if fillStack {
		// Find cells revealed by the raised level.
		stack.Clear()
		chf.forEachSpan(func(x, z, i int) {
			if chf.Dist[i] >= level && srcReg[i] == 0 && chf.Areas[i] != RC_NULL_AREA {
				stack.Push(levelStackEntry{x: x, z: z, index: i})
			}
		})
	} else {
		// Mark all cells which already have a region.
		entries := stack.Data()
		for j := range entries {
			if i := entries[j].index; i >= 0 && srcReg[i] != 0 {
				entries[j].index = -1
			}
		}
	}

	var dirty []dirtyEntry
	iter := 0
	for !stack.Empty() {
		failed := 0
		dirty = dirty[:0]

		entries := stack.Data()
		for j := range entries {
			x, z, i := entries[j].x, entries[j].z, entries[j].index
			if i < 0 {
				failed++
				continue
			}

			r := srcReg[i]
			d2 := 0xffff
			area := chf.Areas[i]
			s := &chf.Spans[i]
			for dir := 0; dir < 4; dir++ {
				_, _, ai, ok := chf.neighbor(x, z, s, dir)
				if !ok || chf.Areas[ai] != area {
					continue
				}
				if srcReg[ai] > 0 && srcReg[ai]&RC_BORDER_REG == 0 {
					if srcDist[ai]+2 < d2 {
						r = srcReg[ai]
						d2 = srcDist[ai] + 2
					}
				}
			}
			if r != 0 {
				entries[j].index = -1 // mark as used
				dirty = append(dirty, dirtyEntry{index: i, region: r, distance2: d2})
			} else {
				failed++
			}
		}

		// Copy entries that differ to keep them in sync with the original values.
		for _, d := range dirty {
			srcReg[d.index] = d.region
			srcDist[d.index] = d.distance2
		}

		if failed == stack.Len() {
			break
		}

		if level > 0 {
			iter++
			if iter >= maxIter {
				break
			}
		}
	}
}

func sortCellsByLevel(startLevel int, chf *RcCompactHeightfield, srcReg []int, stacks []*Stack[levelStackEntry], loglevelsPerStack int) {
	startLevel = startLevel >> loglevelsPerStack

	for _, s := range stacks {
		s.Clear()
	}

	// Put all cells in the level range into the appropriate stacks.
	chf.forEachSpan(func(x, z, i int) {
		if chf.Areas[i] == RC_NULL_AREA || srcReg[i] != 0 {
			return
		}
		level := chf.Dist[i] >> loglevelsPerStack
		sId := startLevel - level
		if sId >= len(stacks) {
			return
		}
		if sId < 0 {
			sId = 0
		}
		stacks[sId].Push(levelStackEntry{x: x, z: z, index: i})
	})
}

func appendStacks(srcStack, dstStack *Stack[levelStackEntry], srcReg []int) {
	for _, e := range srcStack.Data() {
		if e.index < 0 || srcReg[e.index] != 0 {
			continue
		}
		dstStack.Push(e)
	}
}

// RcBuildRegions partitions the walkable spans into regions by flooding the
// distance field from its deepest basins outward. chf.Dist must have been
// built with RcBuildDistanceField.
//
// The returned ids belong to regions that found their own id among the
// floors of one of their columns. Such regions are never merged.
func RcBuildRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) ([]int, error) {
	defer ctx.scopedTimer(RC_TIMER_BUILD_REGIONS)()
	if err := chf.validate(); err != nil {
		return nil, fmt.Errorf("build regions: %w", err)
	}
	if len(chf.Dist) != chf.SpanCount {
		return nil, fmt.Errorf("build regions: distance field has %d entries for %d spans: %w",
			len(chf.Dist), chf.SpanCount, ErrInvalidLayout)
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	lvlStacks := make([]*Stack[levelStackEntry], rcLevelStacks)
	for i := range lvlStacks {
		lvlStacks[i] = NewStack[levelStackEntry](256)
	}
	stack := NewStack[levelStackEntry](256)

	srcReg := make([]int, chf.SpanCount)
	srcDist := make([]int, chf.SpanCount)

	regionID := paintBorderRegions(chf, borderSize, 1, srcReg)
	chf.BorderSize = borderSize

	level := (chf.MaxDistance + 1) &^ 1

	// Level 0 is processed once even when every span is a boundary seed.
	sID := -1
	for {
		level = max(level-2, 0)
		sID = (sID + 1) & (rcLevelStacks - 1)

		if sID == 0 {
			sortCellsByLevel(level, chf, srcReg, lvlStacks, rcLogLevelsPerStk)
		} else {
			// Copy left overs from last level.
			appendStacks(lvlStacks[sID-1], lvlStacks[sID], srcReg)
		}

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_EXPAND)
		// Expand current regions until no empty connected cells found.
		expandRegions(rcExpandIters, level, chf, srcReg, srcDist, lvlStacks[sID], false)
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_EXPAND)

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
		// Mark new regions with IDs.
		for _, current := range lvlStacks[sID].Data() {
			if current.index < 0 || srcReg[current.index] != 0 {
				continue
			}
			if !floodRegion(current.x, current.z, current.index, level, regionID, chf, srcReg, srcDist, stack) {
				continue
			}
			if regionID == RC_MAX_REGION_ID {
				ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
				ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)
				ctx.Log(RC_LOG_ERROR, "region id overflow", zap.Int("level", level))
				return nil, fmt.Errorf("build regions: %w", ErrRegionIDOverflow)
			}
			regionID++
		}
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
		if level == 0 {
			break
		}
	}

	// Expand current regions until no empty connected cells found.
	expandRegions(rcExpandIters*8, 0, chf, srcReg, srcDist, stack, true)

	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	maxRegions, overlaps := mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, regionID, chf, srcReg)
	chf.MaxRegions = maxRegions
	if len(overlaps) > 0 {
		ctx.Log(RC_LOG_WARNING, "overlapping regions", zap.Int("count", len(overlaps)), zap.Ints("regions", overlaps))
	}
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Write the result out.
	for i := range chf.Spans {
		chf.Spans[i].Reg = srcReg[i]
	}
	ctx.Log(RC_LOG_PROGRESS, "built regions",
		zap.Stringer("partition", RC_PARTITION_WATERSHED), zap.Int("regions", chf.MaxRegions))
	return overlaps, nil
}
