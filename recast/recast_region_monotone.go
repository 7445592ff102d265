package recast

import (
	"fmt"

	"go.uber.org/zap"
)

type rcSweepSpan struct {
	rid int // row id
	id  int // region id
	ns  int // number samples
	nei int // neighbour id
}

// sweepMonotoneRegions labels every walkable span row by row so that each
// region is monotone along x. It returns the next free region id.
func sweepMonotoneRegions(chf *RcCompactHeightfield, borderSize int, srcReg []int) (int, error) {
	w, h := chf.Width, chf.Height

	id := paintBorderRegions(chf, borderSize, 1, srcReg)
	chf.BorderSize = borderSize

	sweeps := make([]rcSweepSpan, max(w, h)+1)
	prev := make([]int, 256)

	// Sweep one line at a time.
	for z := borderSize; z < h-borderSize; z++ {
		// Collect spans from this row.
		if len(prev) < id+1 {
			prev = make([]int, id+1)
		}
		clear(prev[:id+1])
		rid := 1

		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+z*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if chf.Areas[i] == RC_NULL_AREA {
					continue
				}
				s := &chf.Spans[i]

				// -x
				previd := 0
				if _, _, ai, ok := chf.neighbor(x, z, s, 0); ok {
					if srcReg[ai]&RC_BORDER_REG == 0 && chf.Areas[i] == chf.Areas[ai] {
						previd = srcReg[ai]
					}
				}

				if previd == 0 {
					previd = rid
					rid++
					if previd >= len(sweeps) {
						sweeps = append(sweeps, make([]rcSweepSpan, previd+1-len(sweeps))...)
					}
					sweeps[previd] = rcSweepSpan{rid: previd}
				}

				// -z
				if _, _, ai, ok := chf.neighbor(x, z, s, 3); ok {
					nr := srcReg[ai]
					if nr != 0 && nr&RC_BORDER_REG == 0 && chf.Areas[i] == chf.Areas[ai] {
						if sweeps[previd].nei == 0 || sweeps[previd].nei == nr {
							sweeps[previd].nei = nr
							sweeps[previd].ns++
							prev[nr]++
						} else {
							sweeps[previd].nei = rcNullNei
						}
					}
				}

				srcReg[i] = previd
			}
		}

		// Create unique ID.
		for i := 1; i < rid; i++ {
			sw := &sweeps[i]
			if sw.nei != rcNullNei && sw.nei != 0 && prev[sw.nei] == sw.ns {
				sw.id = sw.nei
				continue
			}
			if id == RC_MAX_REGION_ID {
				return id, fmt.Errorf("sweep row %d: %w", z, ErrRegionIDOverflow)
			}
			sw.id = id
			id++
		}

		// Remap IDs
		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+z*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if srcReg[i] > 0 && srcReg[i] < rid {
					srcReg[i] = sweeps[srcReg[i]].id
				}
			}
		}
	}
	return id, nil
}

// RcBuildRegionsMonotone partitions the walkable spans into monotone regions.
// It is faster than RcBuildRegions and never produces holes, at
// the price of long thin regions. Like RcBuildRegions it returns the ids of
// regions that found themselves among their own floors.
func RcBuildRegionsMonotone(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) ([]int, error) {
	defer ctx.scopedTimer(RC_TIMER_BUILD_REGIONS)()
	if err := chf.validate(); err != nil {
		return nil, fmt.Errorf("build monotone regions: %w", err)
	}

	srcReg := make([]int, chf.SpanCount)
	id, err := sweepMonotoneRegions(chf, borderSize, srcReg)
	if err != nil {
		ctx.Log(RC_LOG_ERROR, "monotone sweep failed", zap.Error(err))
		return nil, fmt.Errorf("build monotone regions: %w", err)
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	maxRegions, overlaps := mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, id, chf, srcReg)
	chf.MaxRegions = maxRegions
	if len(overlaps) > 0 {
		ctx.Log(RC_LOG_WARNING, "overlapping regions", zap.Int("count", len(overlaps)), zap.Ints("regions", overlaps))
	}
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Store the result out.
	for i := range chf.Spans {
		chf.Spans[i].Reg = srcReg[i]
	}
	ctx.Log(RC_LOG_PROGRESS, "built regions",
		zap.Stringer("partition", RC_PARTITION_MONOTONE), zap.Int("regions", chf.MaxRegions))
	return overlaps, nil
}

// mergeAndFilterLayerRegions unions neighbouring monotone regions of the same
// area into layers that never stack above themselves, drops small layers and
// compresses the ids. It returns the new region count.
func mergeAndFilterLayerRegions(ctx *RcContext, minRegionArea, maxRegionID int, chf *RcCompactHeightfield, srcReg []int) int {
	w, h := chf.Width, chf.Height
	nreg := maxRegionID + 1
	regions := newRegionArena(nreg)

	// Find region neighbours and overlapping regions.
	var lregs []int
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+z*w]
			lregs = lregs[:0]

			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				ri := srcReg[i]
				if ri == 0 || ri >= nreg {
					continue
				}
				reg := &regions[ri]

				reg.spanCount++
				reg.areaType = chf.Areas[i]

				// Collect all region layers.
				lregs = append(lregs, ri)

				// Update neighbours
				for dir := 0; dir < 4; dir++ {
					_, _, ai, ok := chf.neighbor(x, z, s, dir)
					if !ok {
						continue
					}
					rai := srcReg[ai]
					if rai > 0 && rai < nreg && rai != ri {
						addUniqueConnection(reg, rai)
					}
					if rai&RC_BORDER_REG != 0 {
						reg.connectsToBorder = true
					}
				}
			}

			// Update overlapping regions.
			for i := 0; i < len(lregs)-1; i++ {
				for j := i + 1; j < len(lregs); j++ {
					if lregs[i] != lregs[j] {
						addUniqueFloorRegion(&regions[lregs[i]], lregs[j])
						addUniqueFloorRegion(&regions[lregs[j]], lregs[i])
					}
				}
			}
		}
	}

	// Create 2D layers from regions.
	layerID := 1

	for i := range regions {
		regions[i].id = 0
	}

	// Merge montone regions to create non-overlapping areas.
	var queue []int
	for i := 1; i < nreg; i++ {
		root := &regions[i]
		// Skip already visited and empty regions.
		if root.id != 0 || root.spanCount == 0 {
			continue
		}

		// Start search.
		root.id = layerID
		queue = append(queue[:0], i)

		for len(queue) > 0 {
			reg := &regions[queue[0]]
			queue = queue[1:]

			for _, nei := range reg.connections {
				regn := &regions[nei]
				// Skip already visited.
				if regn.id != 0 {
					continue
				}
				// Skip if different area type, do not connect regions with different area type.
				if reg.areaType != regn.areaType {
					continue
				}
				// Skip if the neighbour is overlapping root region.
				overlap := false
				for _, f := range root.floors {
					if f == nei {
						overlap = true
						break
					}
				}
				if overlap {
					continue
				}

				// Deepen
				queue = append(queue, nei)

				// Mark layer id
				regn.id = layerID
				// Merge current layers to root.
				for _, f := range regn.floors {
					addUniqueFloorRegion(root, f)
				}
				root.spanCount += regn.spanCount
				regn.spanCount = 0
				root.connectsToBorder = root.connectsToBorder || regn.connectsToBorder
			}
		}

		layerID++
	}

	// Remove small regions
	for i := range regions {
		if regions[i].spanCount > 0 && regions[i].spanCount < minRegionArea && !regions[i].connectsToBorder {
			reg := regions[i].id
			for j := range regions {
				if regions[j].id == reg {
					regions[j].id = 0
				}
			}
		}
	}

	maxRegions := compressRegionIDs(regions, srcReg)
	ctx.Log(RC_LOG_PROGRESS, "merged layer regions", zap.Int("layers", layerID-1), zap.Int("regions", maxRegions))
	return maxRegions
}

// RcBuildLayerRegions partitions the walkable spans into non-overlapping
// layers made of monotone regions.
func RcBuildLayerRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea int) error {
	defer ctx.scopedTimer(RC_TIMER_BUILD_LAYERS)()
	if err := chf.validate(); err != nil {
		return fmt.Errorf("build layer regions: %w", err)
	}

	srcReg := make([]int, chf.SpanCount)
	id, err := sweepMonotoneRegions(chf, borderSize, srcReg)
	if err != nil {
		ctx.Log(RC_LOG_ERROR, "layer sweep failed", zap.Error(err))
		return fmt.Errorf("build layer regions: %w", err)
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge monotone regions to layers and remove small regions.
	chf.MaxRegions = mergeAndFilterLayerRegions(ctx, minRegionArea, id, chf, srcReg)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Store the result out.
	for i := range chf.Spans {
		chf.Spans[i].Reg = srcReg[i]
	}
	ctx.Log(RC_LOG_PROGRESS, "built regions",
		zap.Stringer("partition", RC_PARTITION_LAYERS), zap.Int("regions", chf.MaxRegions))
	return nil
}
