package recast

import (
	"fmt"
	"strings"

	"github.com/gorustyt/gonavregion/common"
	"go.uber.org/zap"
)

// RcVolumeKind is the shape of a convex marking volume.
type RcVolumeKind int

const (
	RC_VOLUME_BOX RcVolumeKind = iota
	RC_VOLUME_POLY
	RC_VOLUME_CYLINDER
)

func (k RcVolumeKind) String() string {
	switch k {
	case RC_VOLUME_BOX:
		return "box"
	case RC_VOLUME_POLY:
		return "poly"
	case RC_VOLUME_CYLINDER:
		return "cylinder"
	}
	return fmt.Sprintf("volume(%d)", int(k))
}

func ParseVolumeKind(name string) (RcVolumeKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "box":
		return RC_VOLUME_BOX, nil
	case "poly", "convex":
		return RC_VOLUME_POLY, nil
	case "cylinder":
		return RC_VOLUME_CYLINDER, nil
	}
	return RC_VOLUME_BOX, fmt.Errorf("unknown volume kind %q: %w", name, ErrInvalidVolume)
}

// RcConvexVolume marks an area on the heightfield before regions are built.
//
//	box:      Verts[0] and Verts[1] are the min and max corners.
//	poly:     Verts is the xz hull, extruded from Hmin to Hmax and grown by Offset.
//	cylinder: Verts[0] is the base centre on the xz-plane, spanning Hmin to Hmax.
type RcConvexVolume struct {
	Kind   RcVolumeKind
	Verts  []common.Vec3
	Hmin   float64
	Hmax   float64
	Radius float64
	Area   RcAreaModification
	Offset float64
}

func (v *RcConvexVolume) mark(ctx *RcContext, chf *RcCompactHeightfield) error {
	if v.Kind != RC_VOLUME_BOX && v.Hmax < v.Hmin {
		return fmt.Errorf("%v height range [%g,%g] is inverted: %w", v.Kind, v.Hmin, v.Hmax, ErrInvalidVolume)
	}
	switch v.Kind {
	case RC_VOLUME_BOX:
		if len(v.Verts) != 2 {
			return fmt.Errorf("box needs 2 corners, got %d: %w", len(v.Verts), ErrInvalidVolume)
		}
		RcMarkBoxArea(ctx, common.Vmin(v.Verts[0], v.Verts[1]), common.Vmax(v.Verts[0], v.Verts[1]), v.Area, chf)
	case RC_VOLUME_POLY:
		if len(v.Verts) < 3 {
			return fmt.Errorf("poly needs at least 3 vertices, got %d: %w", len(v.Verts), ErrInvalidVolume)
		}
		verts := v.Verts
		if v.Offset != 0 {
			verts = RcOffsetPoly(verts, v.Offset)
		}
		RcMarkConvexPolyArea(ctx, verts, v.Hmin, v.Hmax, v.Area, chf)
	case RC_VOLUME_CYLINDER:
		if len(v.Verts) != 1 || v.Radius <= 0 {
			return fmt.Errorf("cylinder needs a centre and a positive radius: %w", ErrInvalidVolume)
		}
		pos := v.Verts[0]
		pos[1] = v.Hmin
		RcMarkCylinderArea(ctx, pos, v.Radius, v.Hmax-v.Hmin, v.Area, chf)
	default:
		return fmt.Errorf("%v: %w", v.Kind, ErrInvalidVolume)
	}
	return nil
}

// RcRegionReport summarises the outcome of RcBuildNavRegions.
type RcRegionReport struct {
	Partition   RcPartitionType
	SpanCount   int
	MaxDistance int
	MaxRegions  int
	Overlaps    []int
	// RegionSpanCounts[r] is the number of spans labelled r; index 0 counts
	// walkable spans left without a region.
	RegionSpanCounts []int
	BorderSpanCount  int
}

// NewRcRegionReport tallies the region labels currently stored in chf.
func NewRcRegionReport(partition RcPartitionType, chf *RcCompactHeightfield, overlaps []int) RcRegionReport {
	report := RcRegionReport{
		Partition:        partition,
		SpanCount:        chf.SpanCount,
		MaxDistance:      chf.MaxDistance,
		MaxRegions:       chf.MaxRegions,
		Overlaps:         overlaps,
		RegionSpanCounts: make([]int, chf.MaxRegions+1),
	}
	for i := range chf.Spans {
		reg := chf.Spans[i].Reg
		switch {
		case reg&RC_BORDER_REG != 0:
			report.BorderSpanCount++
		case reg < len(report.RegionSpanCounts):
			if reg != 0 || chf.Areas[i] != RC_NULL_AREA {
				report.RegionSpanCounts[reg]++
			}
		}
	}
	return report
}

// RcBuildNavRegions runs the region stage on chf in order: erosion, median
// filter, volume marking, distance field and the configured partition. chf
// is modified in place.
func RcBuildNavRegions(ctx *RcContext, cfg RcConfig, volumes []RcConvexVolume, chf *RcCompactHeightfield) (RcRegionReport, error) {
	defer ctx.scopedTimer(RC_TIMER_TOTAL)()
	if err := chf.validate(); err != nil {
		return RcRegionReport{}, fmt.Errorf("build nav regions: %w", err)
	}

	// Erode the walkable area by agent radius.
	if cfg.WalkableRadius > 0 {
		RcErodeWalkableArea(ctx, cfg.WalkableRadius, chf)
	}
	if cfg.MedianFilter {
		RcMedianFilterWalkableArea(ctx, chf)
	}

	// (Optional) Mark areas.
	for i := range volumes {
		if err := volumes[i].mark(ctx, chf); err != nil {
			return RcRegionReport{}, fmt.Errorf("build nav regions: volume %d: %w", i, err)
		}
	}

	if err := RcBuildDistanceField(ctx, chf); err != nil {
		return RcRegionReport{}, fmt.Errorf("build nav regions: %w", err)
	}

	var overlaps []int
	var err error
	switch cfg.Partition {
	case RC_PARTITION_WATERSHED:
		overlaps, err = RcBuildRegions(ctx, chf, cfg.BorderSize, cfg.MinRegionArea, cfg.MergeRegionArea)
	case RC_PARTITION_MONOTONE:
		overlaps, err = RcBuildRegionsMonotone(ctx, chf, cfg.BorderSize, cfg.MinRegionArea, cfg.MergeRegionArea)
	case RC_PARTITION_LAYERS:
		err = RcBuildLayerRegions(ctx, chf, cfg.BorderSize, cfg.MinRegionArea)
	default:
		err = fmt.Errorf("unsupported partition %v", cfg.Partition)
	}
	if err != nil {
		return RcRegionReport{}, fmt.Errorf("build nav regions: %w", err)
	}

	report := NewRcRegionReport(cfg.Partition, chf, overlaps)
	ctx.Log(RC_LOG_PROGRESS, "region build done",
		zap.Stringer("partition", cfg.Partition),
		zap.Int("spans", report.SpanCount),
		zap.Int("regions", report.MaxRegions),
		zap.Int("overlaps", len(report.Overlaps)))
	return report, nil
}
