package debug_utils

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestIntToCol(t *testing.T) {
	assert.Equal(t, Colorb{63, 63, 63, 255}, DuIntToCol(0, 255))
	assert.Equal(t, Colorb{63, 63, 126, 192}, DuIntToCol(1, 192))
	assert.NotEqual(t, DuIntToCol(1, 255), DuIntToCol(2, 255))
	assert.Equal(t, Colorb{0x20, 0x10, 0x08, 0xff}, DuDarkenCol(Colorb{0x40, 0x20, 0x10, 0xff}))
	assert.Equal(t, Colorb{50, 25, 12, 9}, duMultCol(Colorb{100, 50, 25, 9}, 128))

	var c Colorb
	c.FromInt(Colorb{1, 2, 3, 4}.Int())
	assert.Equal(t, Colorb{1, 2, 3, 4}, c)
}

func TestDrawCompactHeightfieldRegions(t *testing.T) {
	chf := buildRegionField(t, nil)
	img := DuDrawCompactHeightfieldRegions(chf, 2)
	require.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())

	// Column x=3 is empty.
	assert.Zero(t, img.NRGBAAt(6, 0).A)
	left := img.NRGBAAt(2, 2)
	right := img.NRGBAAt(8, 2)
	assert.Equal(t, uint8(255), left.A)
	assert.NotEqual(t, left, right)
	assert.Equal(t, left, img.NRGBAAt(5, 7))
}

func TestDrawCompactHeightfieldDistance(t *testing.T) {
	chf := buildRegionField(t, nil)
	img := DuDrawCompactHeightfieldDistance(chf, 1)
	require.NotNil(t, img)
	assert.Equal(t, uint8(0), img.NRGBAAt(2, 0).R, "boundary spans are black")

	chf.Dist = nil
	assert.Nil(t, DuDrawCompactHeightfieldDistance(chf, 1))
}

func TestWriteImage(t *testing.T) {
	chf := buildRegionField(t, nil)
	img := DuDrawCompactHeightfieldRegions(chf, 1)

	var buf bytes.Buffer
	require.NoError(t, DuWriteImage(&buf, img, "png"))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, DuWriteImage(&buf, img, "BMP"))
	cfg, err := bmp.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Width)

	buf.Reset()
	require.NoError(t, DuWriteImage(&buf, img, "tiff"))
	assert.NotZero(t, buf.Len())

	assert.Error(t, DuWriteImage(&buf, img, "gif"))
}
