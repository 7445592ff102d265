package debug_utils

import (
	"path/filepath"
	"testing"

	"github.com/gorustyt/gonavregion/common"
	"github.com/gorustyt/gonavregion/common/rw"
	"github.com/gorustyt/gonavregion/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func buildRegionField(t *testing.T, ctx *recast.RcContext) *recast.RcCompactHeightfield {
	t.Helper()
	hf := recast.RcCreateHeightfield(6, 4, common.Vec3{}, common.Vec3{6, 10, 4}, 1, 0.5)
	for z := 0; z < 4; z++ {
		for x := 0; x < 6; x++ {
			if x == 3 {
				continue
			}
			require.NoError(t, recast.RcAddSpan(hf, x, z, 0, 2, recast.RC_WALKABLE_AREA, 1))
		}
	}
	require.NoError(t, recast.RcAddSpan(hf, 0, 0, 8, 9, recast.RC_WALKABLE_AREA, 1))
	chf, err := recast.RcBuildCompactHeightfield(ctx, 2, 1, hf)
	require.NoError(t, err)
	_, err = recast.RcBuildNavRegions(ctx, recast.RcConfig{}, nil, chf)
	require.NoError(t, err)
	return chf
}

func TestDumpReadCompactHeightfield(t *testing.T) {
	chf := buildRegionField(t, nil)
	w := rw.NewBinWriter()
	require.NoError(t, DuDumpCompactHeightfield(chf, w))

	got, err := DuReadCompactHeightfield(rw.NewBinReader(w.GetWriteBytes()))
	require.NoError(t, err)
	assert.Equal(t, chf, got)
	assert.Positive(t, got.MaxRegions)
}

func TestReadCompactHeightfieldRejectsBadInput(t *testing.T) {
	chf := buildRegionField(t, nil)
	w := rw.NewBinWriter()
	require.NoError(t, DuDumpCompactHeightfield(chf, w))
	data := w.GetWriteBytes()

	_, err := DuReadCompactHeightfield(rw.NewBinReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, ErrTruncated)

	bad := append([]byte(nil), data...)
	bad[0] ^= 0xff
	_, err = DuReadCompactHeightfield(rw.NewBinReader(bad))
	assert.ErrorIs(t, err, ErrBadMagic)

	bad = append([]byte(nil), data...)
	bad[4] = 3
	_, err = DuReadCompactHeightfield(rw.NewBinReader(bad))
	assert.ErrorIs(t, err, ErrBadVersion)

	_, err = DuReadCompactHeightfield(rw.NewBinReader(data[:6]))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestCompactHeightfieldFile(t *testing.T) {
	chf := buildRegionField(t, nil)
	path := filepath.Join(t.TempDir(), "dump", "field.chf.zst")
	require.NoError(t, DuWriteCompactHeightfieldFile(path, chf))

	got, err := DuReadCompactHeightfieldFile(path)
	require.NoError(t, err)
	assert.Equal(t, chf.RegionIDs(), got.RegionIDs())
	assert.Equal(t, chf.Dist, got.Dist)

	_, err = DuReadCompactHeightfieldFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLogBuildTimes(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := recast.NewRcContext(zap.NewNop())
	buildRegionField(t, ctx)

	DuLogBuildTimes(ctx, zap.New(core))
	if ctx.AccumulatedTime(recast.RC_TIMER_TOTAL) > 0 {
		assert.Equal(t, 1, logs.FilterMessage("build time total").Len())
		for _, entry := range logs.FilterMessage("build time").All() {
			assert.NotEqual(t, "build_layers", entry.ContextMap()["stage"])
		}
	}

	// Nothing to report without a context.
	DuLogBuildTimes(nil, zap.New(core))
}
