package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gorustyt/gonavregion/common"
	"github.com/gorustyt/gonavregion/recast"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid build config")

// BuildConfig is the YAML form of a region build. Lengths are in voxels
// except CellSize, CellHeight and volume coordinates, which are world units.
type BuildConfig struct {
	CellSize           float64  `yaml:"cell_size"`
	CellHeight         float64  `yaml:"cell_height"`
	BorderSize         int      `yaml:"border_size"`
	WalkableSlopeAngle float64  `yaml:"walkable_slope_angle"`
	WalkableHeight     int      `yaml:"walkable_height"`
	WalkableClimb      int      `yaml:"walkable_climb"`
	WalkableRadius     int      `yaml:"walkable_radius"`
	MinRegionArea      int      `yaml:"min_region_area"`
	MergeRegionArea    int      `yaml:"merge_region_area"`
	Partition          string   `yaml:"partition"`
	MedianFilter       bool     `yaml:"median_filter"`
	Volumes            []Volume `yaml:"volumes"`

	// Heightfield filters run before the compact heightfield is built.
	FilterLowHangingObstacles    bool `yaml:"filter_low_hanging_obstacles"`
	FilterLedgeSpans             bool `yaml:"filter_ledge_spans"`
	FilterWalkableLowHeightSpans bool `yaml:"filter_walkable_low_height_spans"`
}

type Volume struct {
	Kind   string      `yaml:"kind"`
	Verts  [][]float64 `yaml:"verts"`
	Hmin   float64     `yaml:"hmin"`
	Hmax   float64     `yaml:"hmax"`
	Radius float64     `yaml:"radius"`
	Area   int         `yaml:"area"`

	// Mask limits which area bits are replaced; 0 means all of them.
	Mask   int     `yaml:"mask"`
	Offset float64 `yaml:"offset"`
}

// Default mirrors the Recast sample settings for a 2m tall, 0.6m wide agent
// on a 0.3m grid.
func Default() BuildConfig {
	return BuildConfig{
		CellSize:           0.3,
		CellHeight:         0.2,
		WalkableSlopeAngle: 45,
		WalkableHeight:     10,
		WalkableClimb:      4,
		WalkableRadius:     2,
		MinRegionArea:      8 * 8,
		MergeRegionArea:    20 * 20,
		Partition:          recast.RC_PARTITION_WATERSHED.String(),

		FilterLowHangingObstacles:    true,
		FilterLedgeSpans:             true,
		FilterWalkableLowHeightSpans: true,
	}
}

func Load(path string) (BuildConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BuildConfig{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw over the defaults and validates the result.
func Parse(raw []byte) (BuildConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("build config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *BuildConfig) Validate() error {
	if c.CellSize <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("cell size %v and height %v must be positive: %w", c.CellSize, c.CellHeight, ErrInvalidConfig)
	}
	if c.WalkableSlopeAngle < 0 || c.WalkableSlopeAngle > 90 {
		return fmt.Errorf("walkable slope angle %v: %w", c.WalkableSlopeAngle, ErrInvalidConfig)
	}
	for _, v := range []struct {
		name  string
		value int
	}{
		{"border_size", c.BorderSize},
		{"walkable_height", c.WalkableHeight},
		{"walkable_climb", c.WalkableClimb},
		{"walkable_radius", c.WalkableRadius},
		{"min_region_area", c.MinRegionArea},
		{"merge_region_area", c.MergeRegionArea},
	} {
		if v.value < 0 {
			return fmt.Errorf("%s is %d: %w", v.name, v.value, ErrInvalidConfig)
		}
	}
	if _, err := recast.ParsePartitionType(c.Partition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.ConvexVolumes(); err != nil {
		return err
	}
	return nil
}

// RcConfig returns the voxel settings of the region stage. The config must
// have passed Validate.
func (c *BuildConfig) RcConfig() recast.RcConfig {
	partition, _ := recast.ParsePartitionType(c.Partition)
	return recast.RcConfig{
		BorderSize:      c.BorderSize,
		WalkableRadius:  c.WalkableRadius,
		MinRegionArea:   c.MinRegionArea,
		MergeRegionArea: c.MergeRegionArea,
		MedianFilter:    c.MedianFilter,
		Partition:       partition,
	}
}

// FilterHeightfield applies the enabled heightfield filters in the order the
// Recast sample runs them.
func (c *BuildConfig) FilterHeightfield(ctx *recast.RcContext, hf *recast.RcHeightfield) {
	if c.FilterLowHangingObstacles {
		recast.RcFilterLowHangingWalkableObstacles(ctx, c.WalkableClimb, hf)
	}
	if c.FilterLedgeSpans {
		recast.RcFilterLedgeSpans(ctx, c.WalkableHeight, c.WalkableClimb, hf)
	}
	if c.FilterWalkableLowHeightSpans {
		recast.RcFilterWalkableLowHeightSpans(ctx, c.WalkableHeight, hf)
	}
}

func (c *BuildConfig) ConvexVolumes() ([]recast.RcConvexVolume, error) {
	volumes := make([]recast.RcConvexVolume, 0, len(c.Volumes))
	for i, v := range c.Volumes {
		kind, err := recast.ParseVolumeKind(v.Kind)
		if err != nil {
			return nil, fmt.Errorf("volume %d: %w", i, err)
		}
		if v.Area < recast.RC_NULL_AREA || v.Area > recast.RC_WALKABLE_AREA {
			return nil, fmt.Errorf("volume %d: area %d: %w", i, v.Area, recast.ErrInvalidVolume)
		}
		if kind != recast.RC_VOLUME_BOX && v.Hmax < v.Hmin {
			return nil, fmt.Errorf("volume %d: hmin %g above hmax %g: %w", i, v.Hmin, v.Hmax, recast.ErrInvalidVolume)
		}
		verts := make([]common.Vec3, len(v.Verts))
		for k, p := range v.Verts {
			if len(p) != 3 {
				return nil, fmt.Errorf("volume %d: vertex %d has %d coordinates: %w", i, k, len(p), recast.ErrInvalidVolume)
			}
			verts[k] = common.Vec3{p[0], p[1], p[2]}
		}
		mod := recast.RcReplaceArea(v.Area)
		if v.Mask != 0 {
			mod.Mask = v.Mask & recast.RC_AREA_FLAGS_MASK
		}
		volumes = append(volumes, recast.RcConvexVolume{
			Kind:   kind,
			Verts:  verts,
			Hmin:   v.Hmin,
			Hmax:   v.Hmax,
			Radius: v.Radius,
			Area:   mod,
			Offset: v.Offset,
		})
	}
	return volumes, nil
}
