package message

import (
	"errors"
	"fmt"

	"github.com/gorustyt/gonavregion/recast"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the RegionReport message:
//
//	message RegionReport {
//	  int32 partition = 1;
//	  int32 span_count = 2;
//	  int32 max_distance = 3;
//	  int32 max_regions = 4;
//	  repeated int32 overlaps = 5;
//	  repeated int32 region_span_counts = 6;
//	  int32 border_span_count = 7;
//	}
const (
	fieldPartition        protowire.Number = 1
	fieldSpanCount        protowire.Number = 2
	fieldMaxDistance      protowire.Number = 3
	fieldMaxRegions       protowire.Number = 4
	fieldOverlaps         protowire.Number = 5
	fieldRegionSpanCounts protowire.Number = 6
	fieldBorderSpanCount  protowire.Number = 7
)

var ErrMalformed = errors.New("malformed region report")

func appendInt(b []byte, num protowire.Number, v int) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendPacked(b []byte, num protowire.Number, vs []int) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(int64(v)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// Encode serialises the report in protobuf wire format.
func Encode(report recast.RcRegionReport) (data []byte) {
	data = appendInt(data, fieldPartition, int(report.Partition))
	data = appendInt(data, fieldSpanCount, report.SpanCount)
	data = appendInt(data, fieldMaxDistance, report.MaxDistance)
	data = appendInt(data, fieldMaxRegions, report.MaxRegions)
	data = appendPacked(data, fieldOverlaps, report.Overlaps)
	data = appendPacked(data, fieldRegionSpanCounts, report.RegionSpanCounts)
	data = appendInt(data, fieldBorderSpanCount, report.BorderSpanCount)
	return data
}

func decodeErr(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}

// Decode parses a report written by Encode. Unknown fields are skipped and
// repeated fields accept both packed and unpacked encodings.
func Decode(data []byte) (recast.RcRegionReport, error) {
	var report recast.RcRegionReport
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return report, decodeErr(n)
		}
		data = data[n:]

		var values []int
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return report, decodeErr(n)
			}
			data = data[n:]
			values = []int{int(int32(v))}
		case protowire.BytesType:
			packed, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return report, decodeErr(n)
			}
			data = data[n:]
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return report, decodeErr(n)
				}
				packed = packed[n:]
				values = append(values, int(int32(v)))
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return report, decodeErr(n)
			}
			data = data[n:]
			continue
		}

		switch num {
		case fieldPartition:
			report.Partition = recast.RcPartitionType(last(values))
		case fieldSpanCount:
			report.SpanCount = last(values)
		case fieldMaxDistance:
			report.MaxDistance = last(values)
		case fieldMaxRegions:
			report.MaxRegions = last(values)
		case fieldOverlaps:
			report.Overlaps = append(report.Overlaps, values...)
		case fieldRegionSpanCounts:
			report.RegionSpanCounts = append(report.RegionSpanCounts, values...)
		case fieldBorderSpanCount:
			report.BorderSpanCount = last(values)
		}
	}
	return report, nil
}

func last(values []int) int {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
