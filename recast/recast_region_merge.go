package recast

import (
	"github.com/gorustyt/gonavregion/common"
	"go.uber.org/zap"
)

const rcMaxContourWalk = 40000

type rcRegion struct {
	spanCount        int // Number of spans belonging to this region
	id               int // ID of the region
	areaType         int // Area type.
	remap            bool
	visited          bool
	overlap          bool
	connectsToBorder bool
	connections      []int
	floors           []int
}

func newRcRegion(id int) rcRegion {
	return rcRegion{id: id}
}

func newRegionArena(nreg int) []rcRegion {
	regions := make([]rcRegion, nreg)
	for i := range regions {
		regions[i] = newRcRegion(i)
	}
	return regions
}

func removeAdjacentNeighbours(reg *rcRegion) {
	// Remove adjacent duplicates.
	for i := 0; i < len(reg.connections) && len(reg.connections) > 1; {
		ni := (i + 1) % len(reg.connections)
		if reg.connections[i] == reg.connections[ni] {
			reg.connections = append(reg.connections[:i], reg.connections[i+1:]...)
		} else {
			i++
		}
	}
}

func replaceNeighbour(reg *rcRegion, oldID, newID int) {
	neiChanged := false
	for i := range reg.connections {
		if reg.connections[i] == oldID {
			reg.connections[i] = newID
			neiChanged = true
		}
	}
	for i := range reg.floors {
		if reg.floors[i] == oldID {
			reg.floors[i] = newID
		}
	}
	if neiChanged {
		removeAdjacentNeighbours(reg)
	}
}

func canMergeWithRegion(rega, regb *rcRegion) bool {
	if rega.areaType != regb.areaType {
		return false
	}
	n := 0
	for _, c := range rega.connections {
		if c == regb.id {
			n++
		}
	}
	if n > 1 {
		return false
	}
	return !common.Contains(rega.floors, regb.id)
}

func addUniqueFloorRegion(reg *rcRegion, n int) {
	reg.floors = common.AppendUnique(reg.floors, n)
}

func addUniqueConnection(reg *rcRegion, n int) {
	reg.connections = common.AppendUnique(reg.connections, n)
}

// mergeRegions splices regb's contour into rega's at their shared edge and
// hands all of regb's spans to rega.
func mergeRegions(rega, regb *rcRegion) bool {
	aid := rega.id
	bid := regb.id

	// Duplicate current neighbourhood.
	acon := append([]int(nil), rega.connections...)
	bcon := regb.connections

	// Find insertion point on A.
	insa := common.IndexOf(acon, bid)
	if insa == -1 {
		return false
	}
	// Find insertion point on B.
	insb := common.IndexOf(bcon, aid)
	if insb == -1 {
		return false
	}

	// Merge neighbours.
	rega.connections = rega.connections[:0:0]
	for i, ni := 0, len(acon); i < ni-1; i++ {
		rega.connections = append(rega.connections, acon[(insa+1+i)%ni])
	}
	for i, ni := 0, len(bcon); i < ni-1; i++ {
		rega.connections = append(rega.connections, bcon[(insb+1+i)%ni])
	}
	removeAdjacentNeighbours(rega)

	for _, f := range regb.floors {
		addUniqueFloorRegion(rega, f)
	}
	rega.spanCount += regb.spanCount
	regb.spanCount = 0
	regb.connections = nil
	return true
}

func isRegionConnectedToBorder(reg *rcRegion) bool {
	// Region is connected to border if one of the neighbours is null id.
	return common.Contains(reg.connections, 0)
}

func isSolidEdge(chf *RcCompactHeightfield, srcReg []int, x, z, i, dir int) bool {
	r := 0
	if _, _, ai, ok := chf.neighbor(x, z, &chf.Spans[i], dir); ok {
		r = srcReg[ai]
	}
	return r != srcReg[i]
}

// walkContour follows the region boundary clockwise from span i and returns
// the ordered list of region ids found across it, 0 standing for no region.
func walkContour(x, z, i, dir int, chf *RcCompactHeightfield, srcReg []int) []int {
	startDir := dir
	starti := i

	curReg := 0
	if _, _, ai, ok := chf.neighbor(x, z, &chf.Spans[i], dir); ok {
		curReg = srcReg[ai]
	}
	cont := []int{curReg}

	for iter := 1; iter < rcMaxContourWalk; iter++ {
		s := &chf.Spans[i]
		if isSolidEdge(chf, srcReg, x, z, i, dir) {
			// Choose the edge corner
			r := 0
			if _, _, ai, ok := chf.neighbor(x, z, s, dir); ok {
				r = srcReg[ai]
			}
			if r != curReg {
				curReg = r
				cont = append(cont, curReg)
			}
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			nx, nz, ni, ok := chf.neighbor(x, z, s, dir)
			common.AssertTrue(ok, "contour walk left the heightfield at (%d,%d)", x, z)
			x, z, i = nx, nz, ni
			dir = (dir + 3) & 0x3 // Rotate CCW
		}

		if starti == i && startDir == dir {
			break
		}
	}

	// Remove adjacent duplicates.
	if len(cont) > 1 {
		for j := 0; j < len(cont); {
			nj := (j + 1) % len(cont)
			if cont[j] == cont[nj] {
				cont = append(cont[:j], cont[j+1:]...)
			} else {
				j++
			}
		}
	}
	return cont
}

// compressRegionIDs renumbers the surviving regions to 1..n in arena order,
// rewrites srcReg and returns n. Groups that no longer own any span get id 0.
func compressRegionIDs(regions []rcRegion, srcReg []int) int {
	nreg := len(regions)
	live := make([]bool, nreg)
	for i := range regions {
		reg := &regions[i]
		reg.remap = false
		if reg.id == 0 || reg.id&RC_BORDER_REG != 0 {
			continue
		}
		reg.remap = true
		if reg.spanCount > 0 {
			live[reg.id] = true
		}
	}

	regIDGen := 0
	for i := 0; i < nreg; i++ {
		if !regions[i].remap {
			continue
		}
		oldID := regions[i].id
		newID := 0
		if live[oldID] {
			regIDGen++
			newID = regIDGen
		}
		for j := i; j < nreg; j++ {
			if regions[j].id == oldID {
				regions[j].id = newID
				regions[j].remap = false
			}
		}
	}

	// Remap regions.
	for i, r := range srcReg {
		if r&RC_BORDER_REG == 0 {
			srcReg[i] = regions[r].id
		}
	}
	return regIDGen
}

// removeSmallRegions clears every connected group of regions whose total
// span count is below minRegionArea, unless the group touches the border.
func removeSmallRegions(regions []rcRegion, minRegionArea int) {
	var stack, trace []int
	for i := range regions {
		reg := &regions[i]
		if reg.id == 0 || reg.id&RC_BORDER_REG != 0 {
			continue
		}
		if reg.spanCount == 0 || reg.visited {
			continue
		}

		// Count the total size of all the connected regions.
		// Also keep track of the regions connects to a tile border.
		spanCount := 0
		stack = append(stack[:0], i)
		trace = trace[:0]
		reg.visited = true

		for len(stack) > 0 {
			// Pop
			ri := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			creg := &regions[ri]
			spanCount += creg.spanCount
			trace = append(trace, ri)

			for _, c := range creg.connections {
				if c&RC_BORDER_REG != 0 {
					creg.connectsToBorder = true
					continue
				}
				neireg := &regions[c]
				if neireg.visited || neireg.id == 0 || neireg.id&RC_BORDER_REG != 0 {
					continue
				}
				// Visit
				stack = append(stack, neireg.id)
				neireg.visited = true
			}
		}

		// If the accumulated regions size is too small, remove it.
		// Do not remove areas which connect to tile borders
		// as their size cannot be estimated correctly and removing them
		// can potentially remove necessary areas.
		connectsToBorder := false
		for _, t := range trace {
			connectsToBorder = connectsToBorder || regions[t].connectsToBorder
		}
		if spanCount < minRegionArea && !connectsToBorder {
			// Kill all visited regions.
			for _, t := range trace {
				regions[t].spanCount = 0
				regions[t].id = 0
			}
		}
	}
}

func mergeSmallRegions(regions []rcRegion, mergeRegionSize int) {
	nreg := len(regions)
	mergeCount := 0
	common.DoWhile(func() bool {
		mergeCount = 0
		for i := 0; i < nreg; i++ {
			reg := &regions[i]
			if reg.id == 0 || reg.id&RC_BORDER_REG != 0 {
				continue
			}
			if reg.overlap || reg.spanCount == 0 {
				continue
			}

			// Check to see if the region should be merged.
			if reg.spanCount > mergeRegionSize && isRegionConnectedToBorder(reg) {
				continue
			}

			// Small region with more than 1 connection.
			// Or region which is not connected to a border at all.
			// Find smallest neighbour region that connects to this one.
			smallest := 0xfffffff
			mergeID := reg.id
			for _, c := range reg.connections {
				if c&RC_BORDER_REG != 0 {
					continue
				}
				mreg := &regions[c]
				if mreg.id == 0 || mreg.id&RC_BORDER_REG != 0 || mreg.overlap {
					continue
				}
				if mreg.spanCount < smallest && canMergeWithRegion(reg, mreg) && canMergeWithRegion(mreg, reg) {
					smallest = mreg.spanCount
					mergeID = mreg.id
				}
			}
			// Found new id.
			if mergeID == reg.id {
				continue
			}
			oldID := reg.id
			target := &regions[mergeID]

			// Merge neighbours.
			if !mergeRegions(target, reg) {
				continue
			}
			// Fixup regions pointing to current region.
			for j := 0; j < nreg; j++ {
				if regions[j].id == 0 || regions[j].id&RC_BORDER_REG != 0 {
					continue
				}
				// If another region was already merged into current region
				// change the nid of the previous region too.
				if regions[j].id == oldID {
					regions[j].id = mergeID
				}
				// Replace the current region with the new one if the
				// current regions is neighbour.
				replaceNeighbour(&regions[j], oldID, mergeID)
			}
			mergeCount++
		}
		return false
	}, func() bool {
		return mergeCount > 0
	})
}

// buildRegionArena collects span counts, floors and contour neighbours for
// every region id below nreg.
func buildRegionArena(chf *RcCompactHeightfield, srcReg []int, nreg int) []rcRegion {
	w, h := chf.Width, chf.Height
	regions := newRegionArena(nreg)

	// Find edge of a region and find connections around the contour.
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+z*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				r := srcReg[i]
				if r == 0 || r >= nreg {
					continue
				}

				reg := &regions[r]
				reg.spanCount++

				// Update floors.
				for j := c.Index; j < ni; j++ {
					if i == j {
						continue
					}
					floorID := srcReg[j]
					if floorID == 0 || floorID >= nreg {
						continue
					}
					if floorID == r {
						reg.overlap = true
					}
					addUniqueFloorRegion(reg, floorID)
				}

				// Have found contour
				if len(reg.connections) > 0 {
					continue
				}

				reg.areaType = chf.Areas[i]

				// Check if this cell is next to a border.
				ndir := -1
				for dir := 0; dir < 4; dir++ {
					if isSolidEdge(chf, srcReg, x, z, i, dir) {
						ndir = dir
						break
					}
				}

				if ndir != -1 {
					// The cell is at border.
					// Walk around the contour to find all the neighbours.
					reg.connections = walkContour(x, z, i, ndir, chf, srcReg)
				}
			}
		}
	}
	return regions
}

// mergeAndFilterRegions builds the region adjacency graph from srcReg, drops
// undersized islands, merges small regions into their smallest compatible
// neighbour and compresses the ids. It returns the new region count and the
// ids of regions that overlap themselves vertically.
func mergeAndFilterRegions(ctx *RcContext, minRegionArea, mergeRegionSize, maxRegionID int, chf *RcCompactHeightfield, srcReg []int) (int, []int) {
	regions := buildRegionArena(chf, srcReg, maxRegionID+1)

	// Remove too small regions.
	removeSmallRegions(regions, minRegionArea)

	// Merge too small regions to neighbour regions.
	mergeSmallRegions(regions, mergeRegionSize)

	// Compress region Ids.
	maxRegions := compressRegionIDs(regions, srcReg)

	// Return regions that we found to be overlapping.
	var overlaps []int
	for i := range regions {
		if regions[i].overlap && regions[i].id != 0 {
			overlaps = append(overlaps, regions[i].id)
		}
	}
	ctx.Log(RC_LOG_PROGRESS, "filtered regions", zap.Int("before", maxRegionID-1), zap.Int("after", maxRegions))
	return maxRegions, overlaps
}
