package debug_utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gorustyt/gonavregion/common/rw"
	"github.com/gorustyt/gonavregion/recast"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const CHF_MAGIC = ('r' << 24) | ('c' << 16) | ('h' << 8) | 'f'

// Version 4 stores region ids and explicit per-direction connections.
const CHF_VERSION = 4

const (
	chfHasCells = 1 << iota
	chfHasSpans
	chfHasDist
	chfHasAreas
)

// con value for an unconnected direction in the dump.
const dumpNotConnected = 0xff

var (
	ErrBadMagic   = errors.New("bad compact heightfield magic")
	ErrBadVersion = errors.New("unsupported compact heightfield version")
	ErrTruncated  = errors.New("truncated compact heightfield dump")
)

func DuDumpCompactHeightfield(chf *recast.RcCompactHeightfield, w *rw.ReaderWriter) error {
	if w == nil {
		return errors.New("dump compact heightfield: nil writer")
	}
	w.WriteInt32(CHF_MAGIC)
	w.WriteInt32(CHF_VERSION)
	w.WriteInt32(chf.Width)
	w.WriteInt32(chf.Height)
	w.WriteInt32(chf.SpanCount)
	w.WriteInt32(chf.WalkableHeight)
	w.WriteInt32(chf.WalkableClimb)
	w.WriteInt32(chf.BorderSize)
	w.WriteUInt16(chf.MaxDistance)
	w.WriteUInt16(chf.MaxRegions)
	w.WriteFloat32s(chf.Bmin[:])
	w.WriteFloat32s(chf.Bmax[:])
	w.WriteFloat32(chf.Cs)
	w.WriteFloat32(chf.Ch)
	tmp := 0
	if len(chf.Cells) != 0 {
		tmp |= chfHasCells
	}
	if len(chf.Spans) != 0 {
		tmp |= chfHasSpans
	}
	if len(chf.Dist) != 0 {
		tmp |= chfHasDist
	}
	if len(chf.Areas) != 0 {
		tmp |= chfHasAreas
	}
	w.WriteInt32(tmp)

	for _, c := range chf.Cells {
		w.WriteInt32(c.Index)
		w.WriteInt32(c.Count)
	}
	for i := range chf.Spans {
		s := &chf.Spans[i]
		w.WriteUInt16(s.Y)
		w.WriteUInt16(s.Reg)
		w.WriteUInt8(s.H)
		for dir := 0; dir < 4; dir++ {
			con := s.Con(dir)
			if con >= dumpNotConnected {
				return fmt.Errorf("dump compact heightfield: span %d layer %d: %w", i, con, rw.ErrValueRange)
			}
			if con == recast.RC_NOT_CONNECTED {
				con = dumpNotConnected
			}
			w.WriteUInt8(con)
		}
	}
	if len(chf.Dist) != 0 {
		w.WriteUInt16s(chf.Dist)
	}
	if len(chf.Areas) != 0 {
		w.WriteUInt8s(chf.Areas)
	}
	if err := w.Err(); err != nil {
		return fmt.Errorf("dump compact heightfield: %w", err)
	}
	return nil
}

func DuReadCompactHeightfield(r *rw.ReaderWriter) (*recast.RcCompactHeightfield, error) {
	if r == nil {
		return nil, errors.New("read compact heightfield: nil reader")
	}
	magic := r.ReadInt32()
	version := r.ReadInt32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read compact heightfield header: %w", ErrTruncated)
	}
	if magic != CHF_MAGIC {
		return nil, fmt.Errorf("read compact heightfield: %w", ErrBadMagic)
	}
	if version != CHF_VERSION {
		return nil, fmt.Errorf("read compact heightfield: version %d: %w", version, ErrBadVersion)
	}

	width := r.ReadInt32()
	height := r.ReadInt32()
	spanCount := r.ReadInt32()
	walkableHeight := r.ReadInt32()
	walkableClimb := r.ReadInt32()
	borderSize := r.ReadInt32()
	maxDistance := r.ReadUInt16()
	maxRegions := r.ReadUInt16()
	var bmin, bmax [3]float64
	r.ReadFloat32s(bmin[:])
	r.ReadFloat32s(bmax[:])
	cs := r.ReadFloat32()
	ch := r.ReadFloat32()
	tmp := r.ReadInt32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read compact heightfield header: %w", ErrTruncated)
	}
	if width < 0 || height < 0 || spanCount < 0 {
		return nil, fmt.Errorf("read compact heightfield: grid %dx%d with %d spans: %w",
			width, height, spanCount, recast.ErrInvalidLayout)
	}

	counts := make([]int, 0)
	if tmp&chfHasCells != 0 {
		// Refuse to allocate for more cells than the payload can hold.
		if r.Size() < width*height*8 {
			return nil, fmt.Errorf("read compact heightfield cells: %w", ErrTruncated)
		}
		counts = make([]int, width*height)
		index := 0
		for c := range counts {
			cellIndex := r.ReadInt32()
			counts[c] = r.ReadInt32()
			if cellIndex != index || counts[c] < 0 {
				return nil, fmt.Errorf("read compact heightfield: cell %d: %w", c, recast.ErrInvalidLayout)
			}
			index += counts[c]
		}
		if index != spanCount {
			return nil, fmt.Errorf("read compact heightfield: cells hold %d of %d spans: %w",
				index, spanCount, recast.ErrInvalidLayout)
		}
	}

	chf := recast.NewRcCompactHeightfield(width, height, counts)
	chf.WalkableHeight = walkableHeight
	chf.WalkableClimb = walkableClimb
	chf.BorderSize = borderSize
	chf.MaxDistance = maxDistance
	chf.MaxRegions = maxRegions
	chf.Bmin = bmin
	chf.Bmax = bmax
	chf.Cs = cs
	chf.Ch = ch
	if chf.SpanCount != spanCount {
		return nil, fmt.Errorf("read compact heightfield: spans without cells: %w", recast.ErrInvalidLayout)
	}

	if tmp&chfHasSpans != 0 {
		if r.Size() < spanCount*9 {
			return nil, fmt.Errorf("read compact heightfield spans: %w", ErrTruncated)
		}
		for i := range chf.Spans {
			s := &chf.Spans[i]
			s.Y = r.ReadUInt16()
			s.Reg = r.ReadUInt16()
			s.H = r.ReadUInt8()
			for dir := 0; dir < 4; dir++ {
				con := r.ReadUInt8()
				if con == dumpNotConnected {
					con = recast.RC_NOT_CONNECTED
				}
				s.SetCon(dir, con)
			}
		}
	}
	if tmp&chfHasDist != 0 {
		chf.Dist = make([]int, spanCount)
		r.ReadUInt16s(chf.Dist)
	}
	if tmp&chfHasAreas != 0 {
		r.ReadUInt8s(chf.Areas)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read compact heightfield: %w", ErrTruncated)
	}
	return chf, nil
}

// DuWriteCompactHeightfieldFile dumps chf to path as a zstd stream.
func DuWriteCompactHeightfieldFile(path string, chf *recast.RcCompactHeightfield) error {
	w := rw.NewBinWriter()
	if err := DuDumpCompactHeightfield(chf, w); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(w.GetWriteBytes()); err != nil {
		enc.Close()
		return fmt.Errorf("zstd encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}
	return f.Sync()
}

func DuReadCompactHeightfieldFile(path string) (*recast.RcCompactHeightfield, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return DuReadCompactHeightfield(rw.NewBinReader(data))
}

// DuLogBuildTimes logs every stage timer that ran, with its share of the total.
func DuLogBuildTimes(ctx *recast.RcContext, logger *zap.Logger) {
	if logger == nil {
		logger = ctx.Logger()
	}
	total := ctx.AccumulatedTime(recast.RC_TIMER_TOTAL)
	if total <= 0 {
		return
	}
	for label := recast.RC_TIMER_TOTAL + 1; label < recast.RC_MAX_TIMERS; label++ {
		t := ctx.AccumulatedTime(label)
		if t < 0 {
			continue
		}
		logger.Info("build time",
			zap.Stringer("stage", label),
			zap.Duration("elapsed", t),
			zap.Float64("percent", 100*float64(t)/float64(total)))
	}
	logger.Info("build time total", zap.Duration("elapsed", total))
}
