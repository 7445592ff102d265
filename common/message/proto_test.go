package message

import (
	"testing"

	"github.com/gorustyt/gonavregion/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeDecodeReport(t *testing.T) {
	report := recast.RcRegionReport{
		Partition:        recast.RC_PARTITION_MONOTONE,
		SpanCount:        81,
		MaxDistance:      8,
		MaxRegions:       3,
		Overlaps:         []int{2},
		RegionSpanCounts: []int{0, 40, 1, 300},
		BorderSpanCount:  12,
	}
	got, err := Decode(Encode(report))
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestEncodeOmitsZeroFields(t *testing.T) {
	assert.Empty(t, Encode(recast.RcRegionReport{}))

	got, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, recast.RcRegionReport{}, got)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	data := protowire.AppendTag(nil, 42, protowire.Fixed32Type)
	data = protowire.AppendFixed32(data, 7)
	data = append(data, Encode(recast.RcRegionReport{MaxRegions: 5})...)
	// An unpacked repeated value is accepted too.
	data = protowire.AppendTag(data, fieldOverlaps, protowire.VarintType)
	data = protowire.AppendVarint(data, 4)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 5, got.MaxRegions)
	assert.Equal(t, []int{4}, got.Overlaps)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	data := Encode(recast.RcRegionReport{RegionSpanCounts: []int{1, 2, 3}})
	_, err := Decode(data[:len(data)-1])
	require.ErrorIs(t, err, ErrMalformed)
}
