package config

import (
	"fmt"
	"os"

	"github.com/gorustyt/gonavregion/common"
	"github.com/gorustyt/gonavregion/recast"
	"gopkg.in/yaml.v3"
)

// Scene is the solid geometry of a build: stacked ASCII layers, triangle
// meshes or both. Each layer row is one z line of the grid: '.' is a
// walkable solid span, a digit 1-9 is a span with that area id and any other
// character leaves the cell empty.
type Scene struct {
	Origin []float64    `yaml:"origin"`
	Layers []SceneLayer `yaml:"layers"`
	Meshes []SceneMesh  `yaml:"meshes"`
}

type SceneLayer struct {
	// Y is the bottom of the solid spans in voxels.
	Y int `yaml:"y"`

	// Thickness defaults to one voxel.
	Thickness int      `yaml:"thickness"`
	Rows      []string `yaml:"rows"`
}

// SceneMesh is an indexed triangle mesh in world units. With Area 0 the
// triangles are classified by slope against walkable_slope_angle.
type SceneMesh struct {
	Verts [][]float64 `yaml:"verts"`
	Tris  []int       `yaml:"tris"`
	Area  int         `yaml:"area"`
}

func LoadScene(path string) (Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, err
	}
	scene, err := ParseScene(raw)
	if err != nil {
		return scene, fmt.Errorf("%s: %w", path, err)
	}
	return scene, nil
}

func ParseScene(raw []byte) (Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(raw, &scene); err != nil {
		return scene, fmt.Errorf("scene: %w", err)
	}
	if err := scene.Validate(); err != nil {
		return scene, err
	}
	return scene, nil
}

func (s *Scene) Validate() error {
	if len(s.Layers) == 0 && len(s.Meshes) == 0 {
		return fmt.Errorf("scene has no layers or meshes: %w", ErrInvalidConfig)
	}
	if len(s.Origin) != 0 && len(s.Origin) != 3 {
		return fmt.Errorf("scene origin has %d coordinates: %w", len(s.Origin), ErrInvalidConfig)
	}
	if len(s.Layers) > 0 {
		if _, _, err := s.layerSize(); err != nil {
			return err
		}
	}
	for mi, m := range s.Meshes {
		if len(m.Tris) == 0 || len(m.Tris)%3 != 0 {
			return fmt.Errorf("mesh %d has %d indices: %w", mi, len(m.Tris), ErrInvalidConfig)
		}
		if m.Area < recast.RC_NULL_AREA || m.Area > recast.RC_WALKABLE_AREA {
			return fmt.Errorf("mesh %d: area %d: %w", mi, m.Area, ErrInvalidConfig)
		}
		for k, p := range m.Verts {
			if len(p) != 3 {
				return fmt.Errorf("mesh %d: vertex %d has %d coordinates: %w", mi, k, len(p), ErrInvalidConfig)
			}
		}
		for _, idx := range m.Tris {
			if idx < 0 || idx >= len(m.Verts) {
				return fmt.Errorf("mesh %d: index %d out of range: %w", mi, idx, ErrInvalidConfig)
			}
		}
	}
	return nil
}

func (s *Scene) layerSize() (width, height int, err error) {
	for li, layer := range s.Layers {
		if layer.Y < 0 || layer.Thickness < 0 {
			return 0, 0, fmt.Errorf("layer %d: negative extent: %w", li, ErrInvalidConfig)
		}
		if li == 0 {
			height = len(layer.Rows)
		} else if len(layer.Rows) != height {
			return 0, 0, fmt.Errorf("layer %d has %d rows, want %d: %w", li, len(layer.Rows), height, ErrInvalidConfig)
		}
		for _, row := range layer.Rows {
			width = max(width, len(row))
		}
	}
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("scene layers are empty: %w", ErrInvalidConfig)
	}
	return width, height, nil
}

// triangles flattens every mesh into one vertex list with per-triangle areas.
func (s *Scene) triangles(cfg *BuildConfig) (verts []common.Vec3, tris, areas []int) {
	for _, m := range s.Meshes {
		base := len(verts)
		meshVerts := make([]common.Vec3, len(m.Verts))
		for k, p := range m.Verts {
			meshVerts[k] = common.Vec3{p[0], p[1], p[2]}
		}
		verts = append(verts, meshVerts...)
		if m.Area != recast.RC_NULL_AREA {
			for t := 0; t < len(m.Tris)/3; t++ {
				areas = append(areas, m.Area)
			}
		} else {
			areas = append(areas, recast.RcMarkWalkableTriangles(cfg.WalkableSlopeAngle, meshVerts, m.Tris)...)
		}
		for _, idx := range m.Tris {
			tris = append(tris, base+idx)
		}
	}
	return verts, tris, areas
}

func sceneArea(ch byte) int {
	switch {
	case ch == '.':
		return recast.RC_WALKABLE_AREA
	case ch >= '1' && ch <= '9':
		return int(ch - '0')
	}
	return recast.RC_NULL_AREA
}

// Heightfield voxelises the scene with the grid resolution of cfg. The grid
// covers the layers and the mesh bounds; short rows are padded with empty
// cells.
func (s *Scene) Heightfield(ctx *recast.RcContext, cfg *BuildConfig) (*recast.RcHeightfield, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var width, height int
	if len(s.Layers) > 0 {
		width, height, _ = s.layerSize()
	}
	verts, tris, areas := s.triangles(cfg)

	var origin common.Vec3
	if len(s.Origin) == 3 {
		origin = common.Vec3{s.Origin[0], s.Origin[1], s.Origin[2]}
	}
	top := 0.0
	for _, layer := range s.Layers {
		top = max(top, float64(layer.Y+max(layer.Thickness, 1))*cfg.CellHeight)
	}
	if len(verts) > 0 {
		bmin, bmax := verts[0], verts[0]
		for _, v := range verts[1:] {
			bmin = common.Vmin(bmin, v)
			bmax = common.Vmax(bmax, v)
		}
		if len(s.Origin) != 3 && len(s.Layers) == 0 {
			origin = bmin
		}
		mw, mh := recast.RcCalcGridSize(origin, bmax, cfg.CellSize)
		width = max(width, mw)
		height = max(height, mh)
		top = max(top, bmax[1]-origin[1])
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scene covers no cells: %w", ErrInvalidConfig)
	}

	bmax := origin.Add(common.Vec3{float64(width) * cfg.CellSize, top, float64(height) * cfg.CellSize})
	hf := recast.RcCreateHeightfield(width, height, origin, bmax, cfg.CellSize, cfg.CellHeight)
	for li, layer := range s.Layers {
		thickness := max(layer.Thickness, 1)
		for z, row := range layer.Rows {
			for x := 0; x < len(row); x++ {
				area := sceneArea(row[x])
				if area == recast.RC_NULL_AREA {
					continue
				}
				if err := recast.RcAddSpan(hf, x, z, layer.Y, layer.Y+thickness, area, cfg.WalkableClimb); err != nil {
					return nil, fmt.Errorf("layer %d: %w", li, err)
				}
			}
		}
	}
	if len(tris) > 0 {
		if err := recast.RcRasterizeTriangles(ctx, verts, tris, areas, hf, cfg.WalkableClimb); err != nil {
			return nil, err
		}
	}
	return hf, nil
}
