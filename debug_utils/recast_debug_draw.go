package debug_utils

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/gorustyt/gonavregion/recast"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// drawTopDown paints each column with the colour of its topmost span as a
// scale x scale block; empty columns stay transparent.
func drawTopDown(chf *recast.RcCompactHeightfield, scale int, colorOf func(i int) Colorb) *image.NRGBA {
	scale = max(scale, 1)
	img := image.NewNRGBA(image.Rect(0, 0, chf.Width*scale, chf.Height*scale))
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			c := chf.Cells[x+z*chf.Width]
			if c.Count == 0 {
				continue
			}
			col := colorOf(c.Index + c.Count - 1).NRGBA()
			for py := z * scale; py < (z+1)*scale; py++ {
				for px := x * scale; px < (x+1)*scale; px++ {
					img.SetNRGBA(px, py, col)
				}
			}
		}
	}
	return img
}

func DuDrawCompactHeightfieldRegions(chf *recast.RcCompactHeightfield, scale int) *image.NRGBA {
	return drawTopDown(chf, scale, func(i int) Colorb {
		reg := chf.Spans[i].Reg
		switch {
		case reg == 0:
			return DuRGBA(0, 0, 0, 64)
		case reg&recast.RC_BORDER_REG != 0:
			return DuDarkenCol(DuIntToCol(reg&^recast.RC_BORDER_REG, 255))
		}
		return DuIntToCol(reg, 255)
	})
}

// DuDrawCompactHeightfieldDistance shades spans from black on the boundary
// to white at MaxDistance. It returns nil when the field has no distances.
func DuDrawCompactHeightfieldDistance(chf *recast.RcCompactHeightfield, scale int) *image.NRGBA {
	if len(chf.Dist) == 0 {
		return nil
	}
	maxd := max(chf.MaxDistance, 1)
	return drawTopDown(chf, scale, func(i int) Colorb {
		cd := min(chf.Dist[i]*255/maxd, 255)
		return DuRGBA(cd, cd, cd, 255)
	})
}

// DuWriteImage encodes img as png, bmp or tiff.
func DuWriteImage(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unknown image format %q", format)
}
