package recast

import (
	"fmt"

	"github.com/gorustyt/gonavregion/common"
)

// / Provides information on the content of a cell column in a compact heightfield.
type RcCompactCell struct {
	Index int ///< Index to the first span in the column.
	Count int ///< Number of spans in the column.
}

// / Represents a span of unobstructed space within a compact heightfield.
type RcCompactSpan struct {
	Y   int    ///< The lower extent of the span. (Measured from the heightfield's base.)
	Reg int    ///< The id of the region the span belongs to. (Or zero if not in a region.)
	H   int    ///< The height of the span.  (Measured from #Y.)
	con [4]int ///< Neighbour layer per direction, or RC_NOT_CONNECTED.
}

func newRcCompactSpan(y, h int) RcCompactSpan {
	return RcCompactSpan{Y: y, H: h, con: [4]int{RC_NOT_CONNECTED, RC_NOT_CONNECTED, RC_NOT_CONNECTED, RC_NOT_CONNECTED}}
}

// Con returns the layer index of the neighbour span in the given direction,
// counted from the start of the neighbour column, or RC_NOT_CONNECTED.
func (s *RcCompactSpan) Con(dir int) int {
	return s.con[dir&0x3]
}

func (s *RcCompactSpan) SetCon(dir, layer int) {
	s.con[dir&0x3] = layer
}

// / A compact, static heightfield representing unobstructed space.
type RcCompactHeightfield struct {
	Width          int             ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height         int             ///< The height of the heightfield. (Along the z-axis in cell units.)
	SpanCount      int             ///< The number of spans in the heightfield.
	WalkableHeight int             ///< The walkable height used during the build of the field.
	WalkableClimb  int             ///< The walkable climb used during the build of the field.
	BorderSize     int             ///< The AABB border size used during the build of the field.
	MaxDistance    int             ///< The maximum distance value of any span within the field.
	MaxRegions     int             ///< The maximum region id of any span within the field.
	Bmin           common.Vec3     ///< The minimum bounds in world space.
	Bmax           common.Vec3     ///< The maximum bounds in world space.
	Cs             float64         ///< The size of each cell. (On the xz-plane.)
	Ch             float64         ///< The height of each cell. (The minimum increment along the y-axis.)
	Cells          []RcCompactCell ///< Array of cells. [Size: #Width*#Height]
	Spans          []RcCompactSpan ///< Array of spans. [Size: #SpanCount]
	Dist           []int           ///< Array containing border distance data. [Size: #SpanCount]
	Areas          []int           ///< Array containing area id data. [Size: #SpanCount]
}

// NeighborIndex resolves the connection of span s at column (x, z) in the
// given direction to a span index. The caller must have checked that the
// connection is set; a connection pointing outside the grid or past the end
// of the neighbour column means the heightfield is corrupt.
func (chf *RcCompactHeightfield) NeighborIndex(x, z int, s *RcCompactSpan, dir int) int {
	layer := s.Con(dir)
	ax := x + common.GetDirOffsetX(dir)
	az := z + common.GetDirOffsetY(dir)
	common.AssertTrue(layer >= 0 && ax >= 0 && az >= 0 && ax < chf.Width && az < chf.Height,
		"span at (%d,%d) connects outside the grid in direction %d", x, z, dir)
	cell := chf.Cells[ax+az*chf.Width]
	common.AssertTrue(layer < cell.Count,
		"span at (%d,%d) connects to missing layer %d in direction %d", x, z, layer, dir)
	return cell.Index + layer
}

// neighbor returns the coordinates and span index of the neighbour in
// direction dir, with ok=false when the span is not connected that way.
func (chf *RcCompactHeightfield) neighbor(x, z int, s *RcCompactSpan, dir int) (ax, az, ai int, ok bool) {
	if s.Con(dir) == RC_NOT_CONNECTED {
		return 0, 0, 0, false
	}
	return x + common.GetDirOffsetX(dir), z + common.GetDirOffsetY(dir), chf.NeighborIndex(x, z, s, dir), true
}

// forEachSpan visits every span in row-major column order.
func (chf *RcCompactHeightfield) forEachSpan(fn func(x, z, i int)) {
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.Cells[x+z*chf.Width]
			for i, ni := cell.Index, cell.Index+cell.Count; i < ni; i++ {
				fn(x, z, i)
			}
		}
	}
}

// validate checks that the per-span arrays match the cell layout.
func (chf *RcCompactHeightfield) validate() error {
	if len(chf.Cells) != chf.Width*chf.Height {
		return fmt.Errorf("%d cells for a %dx%d grid: %w", len(chf.Cells), chf.Width, chf.Height, ErrInvalidLayout)
	}
	if len(chf.Spans) != chf.SpanCount || len(chf.Areas) != chf.SpanCount {
		return fmt.Errorf("%d spans and %d areas for span count %d: %w",
			len(chf.Spans), len(chf.Areas), chf.SpanCount, ErrInvalidLayout)
	}
	return nil
}

// RegionIDs copies the region id of every span.
func (chf *RcCompactHeightfield) RegionIDs() []int {
	regs := make([]int, chf.SpanCount)
	for i := range chf.Spans {
		regs[i] = chf.Spans[i].Reg
	}
	return regs
}

// Clone returns a deep copy of the heightfield.
func (chf *RcCompactHeightfield) Clone() *RcCompactHeightfield {
	c := *chf
	c.Cells = append([]RcCompactCell(nil), chf.Cells...)
	c.Spans = append([]RcCompactSpan(nil), chf.Spans...)
	c.Areas = append([]int(nil), chf.Areas...)
	if chf.Dist != nil {
		c.Dist = append([]int(nil), chf.Dist...)
	}
	return &c
}

// NewRcCompactHeightfield allocates an empty compact heightfield with the
// given column layout; counts[x+z*width] is the number of spans in each
// column. Spans start unconnected with RC_NULL_AREA.
func NewRcCompactHeightfield(width, height int, counts []int) *RcCompactHeightfield {
	chf := &RcCompactHeightfield{
		Width:  width,
		Height: height,
		Cells:  make([]RcCompactCell, width*height),
	}
	index := 0
	for c := range chf.Cells {
		chf.Cells[c].Index = index
		if c < len(counts) {
			chf.Cells[c].Count = counts[c]
			index += counts[c]
		}
	}
	chf.SpanCount = index
	chf.Spans = make([]RcCompactSpan, index)
	for i := range chf.Spans {
		chf.Spans[i] = newRcCompactSpan(0, 0)
	}
	chf.Areas = make([]int, index)
	return chf
}
