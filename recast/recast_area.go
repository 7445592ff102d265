package recast

import (
	"sort"

	"github.com/gorustyt/gonavregion/common"
)

// RC_AREA_FLAGS_MASK covers every bit an area id may use.
const RC_AREA_FLAGS_MASK = 0x3f

// RcAreaModification rewrites the masked bits of an area id. It never
// touches RC_NULL_AREA spans.
type RcAreaModification struct {
	Value int
	Mask  int
}

// RcReplaceArea returns a modification that replaces the whole area id.
func RcReplaceArea(areaID int) RcAreaModification {
	return RcAreaModification{Value: areaID, Mask: RC_AREA_FLAGS_MASK}
}

func (m RcAreaModification) Apply(area int) int {
	if area == RC_NULL_AREA {
		return area
	}
	return (area &^ m.Mask) | (m.Value & m.Mask)
}

// RcErodeWalkableArea removes every walkable span closer than radius cells to
// a boundary. Boundaries are null spans, spans missing a cardinal neighbour
// and spans whose cardinal neighbour carries another area id.
func RcErodeWalkableArea(ctx *RcContext, erosionRadius int, chf *RcCompactHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_ERODE_AREA)()

	distanceToBoundary := make([]int, chf.SpanCount)
	for i := range distanceToBoundary {
		distanceToBoundary[i] = 0xff
	}

	// Mark boundary cells.
	chf.forEachSpan(func(x, z, i int) {
		area := chf.Areas[i]
		if area == RC_NULL_AREA {
			distanceToBoundary[i] = 0
			return
		}
		span := &chf.Spans[i]
		for dir := 0; dir < 4; dir++ {
			_, _, ai, ok := chf.neighbor(x, z, span, dir)
			if !ok || chf.Areas[ai] != area {
				// At least one missing neighbour, so this is a boundary cell.
				distanceToBoundary[i] = 0
				return
			}
		}
	})

	chamferDistance(chf, distanceToBoundary, 0xff)

	minBoundaryDistance := erosionRadius * 2
	for i := 0; i < chf.SpanCount; i++ {
		if distanceToBoundary[i] < minBoundaryDistance {
			chf.Areas[i] = RC_NULL_AREA
		}
	}
}

// RcMedianFilterWalkableArea replaces every walkable area id with the median
// of its 3x3 neighbourhood. Missing or null neighbours count as the span's
// own id.
func RcMedianFilterWalkableArea(ctx *RcContext, chf *RcCompactHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_MEDIAN_AREA)()

	areas := make([]int, chf.SpanCount)
	chf.forEachSpan(func(x, z, i int) {
		self := chf.Areas[i]
		if self == RC_NULL_AREA {
			areas[i] = self
			return
		}
		var neighborAreas [9]int
		for k := range neighborAreas {
			neighborAreas[k] = self
		}
		span := &chf.Spans[i]
		for dir := 0; dir < 4; dir++ {
			ax, az, ai, ok := chf.neighbor(x, z, span, dir)
			if !ok {
				continue
			}
			if chf.Areas[ai] != RC_NULL_AREA {
				neighborAreas[dir*2+0] = chf.Areas[ai]
			}
			dir2 := (dir + 1) & 0x3
			if _, _, bi, ok := chf.neighbor(ax, az, &chf.Spans[ai], dir2); ok && chf.Areas[bi] != RC_NULL_AREA {
				neighborAreas[dir*2+1] = chf.Areas[bi]
			}
		}
		sort.Ints(neighborAreas[:])
		areas[i] = neighborAreas[4]
	})
	chf.Areas = areas
}

// gridFootprint converts a world-space AABB into inclusive cell bounds
// clamped to the grid, with ok=false when the box misses the grid entirely.
func gridFootprint(chf *RcCompactHeightfield, bmin, bmax common.Vec3) (minx, miny, minz, maxx, maxy, maxz int, ok bool) {
	minx = int((bmin[0] - chf.Bmin[0]) / chf.Cs)
	miny = int((bmin[1] - chf.Bmin[1]) / chf.Ch)
	minz = int((bmin[2] - chf.Bmin[2]) / chf.Cs)
	maxx = int((bmax[0] - chf.Bmin[0]) / chf.Cs)
	maxy = int((bmax[1] - chf.Bmin[1]) / chf.Ch)
	maxz = int((bmax[2] - chf.Bmin[2]) / chf.Cs)

	if maxx < 0 || minx >= chf.Width || maxz < 0 || minz >= chf.Height {
		return 0, 0, 0, 0, 0, 0, false
	}
	minx = max(minx, 0)
	maxx = min(maxx, chf.Width-1)
	minz = max(minz, 0)
	maxz = min(maxz, chf.Height-1)
	return minx, miny, minz, maxx, maxy, maxz, true
}

func (chf *RcCompactHeightfield) cellCenter(x, z int) common.Vec3 {
	return common.Vec3{
		chf.Bmin[0] + (float64(x)+0.5)*chf.Cs,
		0,
		chf.Bmin[2] + (float64(z)+0.5)*chf.Cs,
	}
}

// markColumn applies mod to every walkable span of the column whose base
// lies in [miny, maxy].
func (chf *RcCompactHeightfield) markColumn(x, z, miny, maxy int, mod RcAreaModification) {
	cell := chf.Cells[x+z*chf.Width]
	for i, ni := cell.Index, cell.Index+cell.Count; i < ni; i++ {
		if chf.Areas[i] == RC_NULL_AREA {
			continue
		}
		if chf.Spans[i].Y < miny || chf.Spans[i].Y > maxy {
			continue
		}
		chf.Areas[i] = mod.Apply(chf.Areas[i])
	}
}

func RcMarkBoxArea(ctx *RcContext, boxMinBounds, boxMaxBounds common.Vec3, mod RcAreaModification, chf *RcCompactHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_MARK_BOX_AREA)()

	minx, miny, minz, maxx, maxy, maxz, ok := gridFootprint(chf, boxMinBounds, boxMaxBounds)
	if !ok {
		return
	}
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			chf.markColumn(x, z, miny, maxy, mod)
		}
	}
}

// RcMarkConvexPolyArea marks the spans inside a convex polygon extruded
// between minY and maxY. Membership uses the xz cell centre only.
func RcMarkConvexPolyArea(ctx *RcContext, verts []common.Vec3, minY, maxY float64, mod RcAreaModification, chf *RcCompactHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)()
	if len(verts) == 0 {
		return
	}

	bmin, bmax := verts[0], verts[0]
	for _, v := range verts[1:] {
		bmin = common.Vmin(bmin, v)
		bmax = common.Vmax(bmax, v)
	}
	bmin[1] = minY
	bmax[1] = maxY

	minx, miny, minz, maxx, maxy, maxz, ok := gridFootprint(chf, bmin, bmax)
	if !ok {
		return
	}
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			if !common.PointInPoly(verts, chf.cellCenter(x, z)) {
				continue
			}
			chf.markColumn(x, z, miny, maxy, mod)
		}
	}
}

func RcMarkCylinderArea(ctx *RcContext, position common.Vec3, radius, height float64, mod RcAreaModification, chf *RcCompactHeightfield) {
	defer ctx.scopedTimer(RC_TIMER_MARK_CYLINDER_AREA)()

	bmin := common.Vec3{position[0] - radius, position[1], position[2] - radius}
	bmax := common.Vec3{position[0] + radius, position[1] + height, position[2] + radius}
	minx, miny, minz, maxx, maxy, maxz, ok := gridFootprint(chf, bmin, bmax)
	if !ok {
		return
	}

	radiusSq := radius * radius
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			center := chf.cellCenter(x, z)
			// Skip this column if it's too far from the center point of the cylinder.
			if common.Sqr(center[0]-position[0])+common.Sqr(center[2]-position[2]) >= radiusSq {
				continue
			}
			chf.markColumn(x, z, miny, maxy, mod)
		}
	}
}

// RcOffsetPoly grows a polygon on the xz-plane by offset, bevelling acute
// convex corners. Y values are carried over from the input.
func RcOffsetPoly(verts []common.Vec3, offset float64) []common.Vec3 {
	// Defines the limit at which a miter becomes a bevel.
	const miterLimit = 1.20

	numVerts := len(verts)
	out := make([]common.Vec3, 0, numVerts*2)
	for vertIndex := 0; vertIndex < numVerts; vertIndex++ {
		vertA := verts[(vertIndex+numVerts-1)%numVerts]
		vertB := verts[vertIndex]
		vertC := verts[(vertIndex+1)%numVerts]

		prevSegmentDir := common.VsafeNormalize2D(vertB.Sub(vertA))
		currSegmentDir := common.VsafeNormalize2D(vertC.Sub(vertB))

		// The y component of the cross product of the two normalized segment directions.
		cross := currSegmentDir[0]*prevSegmentDir[2] - prevSegmentDir[0]*currSegmentDir[2]

		// CCW perpendicular vectors of AB and BC.
		prevSegmentNormX := -prevSegmentDir[2]
		prevSegmentNormZ := prevSegmentDir[0]
		currSegmentNormX := -currSegmentDir[2]
		currSegmentNormZ := currSegmentDir[0]

		// Average the two segment normals to get the proportional miter offset for B.
		cornerMiterX := (prevSegmentNormX + currSegmentNormX) * 0.5
		cornerMiterZ := (prevSegmentNormZ + currSegmentNormZ) * 0.5
		cornerMiterSqMag := common.Sqr(cornerMiterX) + common.Sqr(cornerMiterZ)

		bevel := cornerMiterSqMag*miterLimit*miterLimit < 1.0

		if cornerMiterSqMag > common.Epsilon {
			scale := 1.0 / cornerMiterSqMag
			cornerMiterX *= scale
			cornerMiterZ *= scale
		}

		if bevel && cross < 0.0 {
			d := (1.0 - (prevSegmentDir[0]*currSegmentDir[0] + prevSegmentDir[2]*currSegmentDir[2])) * 0.5
			out = append(out,
				common.Vec3{
					vertB[0] + (-prevSegmentNormX+prevSegmentDir[0]*d)*offset,
					vertB[1],
					vertB[2] + (-prevSegmentNormZ+prevSegmentDir[2]*d)*offset,
				},
				common.Vec3{
					vertB[0] + (-currSegmentNormX-currSegmentDir[0]*d)*offset,
					vertB[1],
					vertB[2] + (-currSegmentNormZ-currSegmentDir[2]*d)*offset,
				})
			continue
		}
		// Move B along the miter direction by the specified offset.
		out = append(out, common.Vec3{vertB[0] - cornerMiterX*offset, vertB[1], vertB[2] - cornerMiterZ*offset})
	}
	return out
}
