package recast

import (
	"fmt"

	"go.uber.org/zap"
)

// Chamfer sweep directions. Each entry is a cardinal step; the diagonal is
// taken from that neighbour one direction clockwise back.
var (
	chamferForward  = [2]int{0, 3}
	chamferBackward = [2]int{2, 1}
)

func relaxChamfer(chf *RcCompactHeightfield, dist []int, x, z, i int, dirs [2]int, limit int) {
	s := &chf.Spans[i]
	for _, dir := range dirs {
		ax, az, ai, ok := chf.neighbor(x, z, s, dir)
		if !ok {
			continue
		}
		dist[i] = min(dist[i], dist[ai]+2, limit)

		dir2 := (dir + 3) & 0x3
		if _, _, aai, ok := chf.neighbor(ax, az, &chf.Spans[ai], dir2); ok {
			dist[i] = min(dist[i], dist[aai]+3, limit)
		}
	}
}

// chamferDistance runs the two-pass 2/3 chamfer transform over dist in
// place. Seeds must already hold 0; values never exceed limit.
func chamferDistance(chf *RcCompactHeightfield, dist []int, limit int) {
	w, h := chf.Width, chf.Height

	// Pass 1
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+z*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				relaxChamfer(chf, dist, x, z, i, chamferForward, limit)
			}
		}
	}

	// Pass 2
	for z := h - 1; z >= 0; z-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.Cells[x+z*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				relaxChamfer(chf, dist, x, z, i, chamferBackward, limit)
			}
		}
	}
}

// calculateDistanceField fills src with the chamfer distance of every span
// to the nearest boundary seed and returns the largest value.
func calculateDistanceField(chf *RcCompactHeightfield, src []int) (maxDist int) {
	for i := range src {
		src[i] = 0xffff
	}

	// Mark boundary cells.
	chf.forEachSpan(func(x, z, i int) {
		area := chf.Areas[i]
		if area == RC_NULL_AREA {
			src[i] = 0
			return
		}
		s := &chf.Spans[i]
		nc := 0
		for dir := 0; dir < 4; dir++ {
			if _, _, ai, ok := chf.neighbor(x, z, s, dir); ok && chf.Areas[ai] == area {
				nc++
			}
		}
		if nc != 4 {
			src[i] = 0
		}
	})

	chamferDistance(chf, src, 0xffff)

	for _, d := range src {
		maxDist = max(maxDist, d)
	}
	return maxDist
}

func boxBlur(chf *RcCompactHeightfield, thr int, src, dst []int) []int {
	thr *= 2

	chf.forEachSpan(func(x, z, i int) {
		s := &chf.Spans[i]
		cd := src[i]
		if cd <= thr {
			dst[i] = cd
			return
		}

		d := cd
		for dir := 0; dir < 4; dir++ {
			ax, az, ai, ok := chf.neighbor(x, z, s, dir)
			if !ok {
				d += cd * 2
				continue
			}
			d += src[ai]

			dir2 := (dir + 1) & 0x3
			if _, _, aai, ok := chf.neighbor(ax, az, &chf.Spans[ai], dir2); ok {
				d += src[aai]
			} else {
				d += cd
			}
		}
		dst[i] = (d + 5) / 9
	})
	return dst
}

// RcBuildDistanceField computes the smoothed distance of every span to the
// nearest area boundary and stores it in chf.Dist. chf.MaxDistance keeps the
// largest distance before smoothing.
func RcBuildDistanceField(ctx *RcContext, chf *RcCompactHeightfield) error {
	defer ctx.scopedTimer(RC_TIMER_BUILD_DISTANCEFIELD)()
	if err := chf.validate(); err != nil {
		return fmt.Errorf("build distance field: %w", err)
	}

	src := make([]int, chf.SpanCount)
	dst := make([]int, chf.SpanCount)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)
	chf.MaxDistance = calculateDistanceField(chf, src)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
	chf.Dist = boxBlur(chf, 1, src, dst)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)

	ctx.Log(RC_LOG_PROGRESS, "built distance field", zap.Int("max_distance", chf.MaxDistance))
	return nil
}
