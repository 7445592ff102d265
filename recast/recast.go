package recast

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// / Represents the null area.
	// / When a data element is given this value it is considered to no longer be
	// / assigned to a usable area.  (E.g. It is un-walkable.)
	RC_NULL_AREA = 0

	// / The default area id used to indicate a walkable polygon.
	// / This is also the maximum allowed area id, and the only non-null area id
	// / recognized by some steps in the build process.
	RC_WALKABLE_AREA = 63

	// / The value returned by RcCompactSpan.Con if the specified direction is not connected
	// / to another span. (Has no neighbor.)
	RC_NOT_CONNECTED = -1

	// / Heightfield border flag.
	// / If a heightfield region ID has this bit set, then the region is a border
	// / region and its spans are considered un-walkable.
	RC_BORDER_REG = 0x8000

	// Largest region id the growers hand out before reporting an overflow.
	RC_MAX_REGION_ID = 0xFFFF

	rcNullNei = 0xffff
)

var (
	ErrRegionIDOverflow = errors.New("region id overflow")
	ErrSpanOutOfBounds  = errors.New("span column out of bounds")
	ErrInvalidSpan      = errors.New("invalid span extents")
	ErrInvalidLayout    = errors.New("compact heightfield layout mismatch")
	ErrInvalidVolume    = errors.New("invalid convex volume")
	ErrInvalidMesh      = errors.New("invalid triangle mesh")
)

// RcPartitionType selects the region grower used by RcBuildNavRegions.
type RcPartitionType int

const (
	RC_PARTITION_WATERSHED RcPartitionType = iota
	RC_PARTITION_MONOTONE
	RC_PARTITION_LAYERS
)

func (p RcPartitionType) String() string {
	switch p {
	case RC_PARTITION_WATERSHED:
		return "watershed"
	case RC_PARTITION_MONOTONE:
		return "monotone"
	case RC_PARTITION_LAYERS:
		return "layers"
	}
	return fmt.Sprintf("partition(%d)", int(p))
}

// ParsePartitionType maps a partition name to its type.
func ParsePartitionType(name string) (RcPartitionType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "watershed":
		return RC_PARTITION_WATERSHED, nil
	case "monotone":
		return RC_PARTITION_MONOTONE, nil
	case "layers", "layer":
		return RC_PARTITION_LAYERS, nil
	}
	return RC_PARTITION_WATERSHED, fmt.Errorf("unknown partition type %q", name)
}

// / Specifies the configuration of the region build.
// / All values are in voxel units.
type RcConfig struct {
	/// The size of the non-navigable border around the heightfield. [Limit: >=0]
	BorderSize int

	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions. [Limit: >=0]
	WalkableRadius int

	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0]
	MinRegionArea int

	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0]
	MergeRegionArea int

	/// Run the median filter over the area ids after erosion.
	MedianFilter bool

	Partition RcPartitionType
}
