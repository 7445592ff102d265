package recast

import (
	"fmt"
	"math"

	"github.com/gorustyt/gonavregion/common"
	"go.uber.org/zap"
)

type rcAxis int

const (
	RC_AXIS_X rcAxis = 0
	RC_AXIS_Y rcAxis = 1
	RC_AXIS_Z rcAxis = 2
)

// Upper bound on the vertices of a clipped triangle.
const rcMaxClipVerts = 12

func overlapBounds(aMin, aMax, bMin, bMax common.Vec3) bool {
	return aMin[0] <= bMax[0] && aMax[0] >= bMin[0] &&
		aMin[1] <= bMax[1] && aMax[1] >= bMin[1] &&
		aMin[2] <= bMax[2] && aMax[2] >= bMin[2]
}

// dividePoly splits the convex polygon in across the plane axis = axisOffset.
// out1 receives the part below the plane, out2 the part above it.
func dividePoly(in []common.Vec3, out1, out2 []common.Vec3, axisOffset float64, axis rcAxis) ([]common.Vec3, []common.Vec3) {
	common.AssertTrue(len(in) <= rcMaxClipVerts, "polygon with %d vertices", len(in))
	out1 = out1[:0]
	out2 = out2[:0]

	var delta [rcMaxClipVerts]float64
	for i, v := range in {
		delta[i] = axisOffset - v[axis]
	}
	for a, b := 0, len(in)-1; a < len(in); b, a = a, a+1 {
		sameSide := (delta[a] >= 0) == (delta[b] >= 0)
		if !sameSide {
			s := delta[b] / (delta[b] - delta[a])
			p := in[b].Add(in[a].Sub(in[b]).Mul(s))
			out1 = append(out1, p)
			out2 = append(out2, p)
			// Points on the dividing line were added above.
			if delta[a] > 0 {
				out1 = append(out1, in[a])
			} else if delta[a] < 0 {
				out2 = append(out2, in[a])
			}
			continue
		}
		// Points on the line go to both sides.
		if delta[a] >= 0 {
			out1 = append(out1, in[a])
			if delta[a] != 0 {
				continue
			}
		}
		out2 = append(out2, in[a])
	}
	return out1, out2
}

func rasterizeTri(v0, v1, v2 common.Vec3, areaID int, hf *RcHeightfield, flagMergeThreshold int) error {
	triMin := common.Vmin(common.Vmin(v0, v1), v2)
	triMax := common.Vmax(common.Vmax(v0, v1), v2)
	if !overlapBounds(triMin, triMax, hf.Bmin, hf.Bmax) {
		return nil
	}

	w := hf.Width
	h := hf.Height
	by := hf.Bmax[1] - hf.Bmin[1]
	ics := 1.0 / hf.Cs
	ich := 1.0 / hf.Ch

	z0 := int(math.Floor((triMin[2] - hf.Bmin[2]) * ics))
	z1 := int(math.Floor((triMax[2] - hf.Bmin[2]) * ics))
	// -1 rather than 0 cuts the polygon at the start of the grid.
	z0 = common.Clamp(z0, -1, h-1)
	z1 = common.Clamp(z1, 0, h-1)

	in := []common.Vec3{v0, v1, v2}
	var row, rest, cell, rowRest []common.Vec3
	for z := z0; z <= z1; z++ {
		cellZ := hf.Bmin[2] + float64(z)*hf.Cs
		row, rest = dividePoly(in, row, rest, cellZ+hf.Cs, RC_AXIS_Z)
		in, rest = rest, in
		if len(row) < 3 || z < 0 {
			continue
		}

		minX, maxX := row[0][0], row[0][0]
		for _, v := range row[1:] {
			minX = min(minX, v[0])
			maxX = max(maxX, v[0])
		}
		x0 := int(math.Floor((minX - hf.Bmin[0]) * ics))
		x1 := int(math.Floor((maxX - hf.Bmin[0]) * ics))
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = common.Clamp(x0, -1, w-1)
		x1 = common.Clamp(x1, 0, w-1)

		for x := x0; x <= x1; x++ {
			cx := hf.Bmin[0] + float64(x)*hf.Cs
			cell, rowRest = dividePoly(row, cell, rowRest, cx+hf.Cs, RC_AXIS_X)
			row, rowRest = rowRest, row
			if len(cell) < 3 || x < 0 {
				continue
			}

			spanMin, spanMax := cell[0][1], cell[0][1]
			for _, v := range cell[1:] {
				spanMin = min(spanMin, v[1])
				spanMax = max(spanMax, v[1])
			}
			spanMin -= hf.Bmin[1]
			spanMax -= hf.Bmin[1]
			if spanMax < 0 || spanMin > by {
				continue
			}
			spanMin = max(spanMin, 0)
			spanMax = min(spanMax, by)

			// Snap to the height grid.
			smin := common.Clamp(int(math.Floor(spanMin*ich)), 0, RC_SPAN_MAX_HEIGHT)
			smax := common.Clamp(int(math.Ceil(spanMax*ich)), smin+1, RC_SPAN_MAX_HEIGHT)
			if err := RcAddSpan(hf, x, z, smin, smax, areaID, flagMergeThreshold); err != nil {
				return err
			}
		}
	}
	return nil
}

// RcRasterizeTriangles voxelises the indexed triangles into hf. areas holds
// one area id per triangle.
func RcRasterizeTriangles(ctx *RcContext, verts []common.Vec3, tris []int, areas []int, hf *RcHeightfield, flagMergeThreshold int) error {
	defer ctx.scopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	if len(tris)%3 != 0 || len(areas) != len(tris)/3 {
		return fmt.Errorf("rasterize: %d indices and %d areas: %w", len(tris), len(areas), ErrInvalidMesh)
	}
	for t := 0; t < len(areas); t++ {
		var v [3]common.Vec3
		for k := range v {
			idx := tris[t*3+k]
			if idx < 0 || idx >= len(verts) {
				return fmt.Errorf("rasterize: triangle %d vertex %d: %w", t, idx, ErrInvalidMesh)
			}
			v[k] = verts[idx]
		}
		if err := rasterizeTri(v[0], v[1], v[2], areas[t], hf, flagMergeThreshold); err != nil {
			return fmt.Errorf("rasterize: triangle %d: %w", t, err)
		}
	}
	ctx.Log(RC_LOG_PROGRESS, "rasterized triangles", zap.Int("triangles", len(areas)))
	return nil
}

// RcMarkWalkableTriangles gives RC_WALKABLE_AREA to every triangle whose
// slope is below walkableSlopeAngle degrees and RC_NULL_AREA to the rest.
func RcMarkWalkableTriangles(walkableSlopeAngle float64, verts []common.Vec3, tris []int) []int {
	walkableThr := math.Cos(walkableSlopeAngle / 180.0 * math.Pi)
	areas := make([]int, len(tris)/3)
	for t := range areas {
		v0, v1, v2 := verts[tris[t*3]], verts[tris[t*3+1]], verts[tris[t*3+2]]
		norm := v1.Sub(v0).Cross(v2.Sub(v0))
		if l := norm.Len(); l > 0 && norm[1]/l > walkableThr {
			areas[t] = RC_WALKABLE_AREA
		}
	}
	return areas
}
