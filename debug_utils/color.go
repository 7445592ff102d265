package debug_utils

import "image/color"

type Colorb [4]uint8

func (c Colorb) R() uint8 {
	return c[0]
}

func (c Colorb) G() uint8 {
	return c[1]
}

func (c Colorb) B() uint8 {
	return c[2]
}

func (c Colorb) A() uint8 {
	return c[3]
}

func (c Colorb) Int() uint32 {
	return uint32(c.R()) | (uint32(c.G()) << 8) | (uint32(c.B()) << 16) | (uint32(c.A()) << 24)
}

func (c *Colorb) FromInt(col uint32) {
	c[0] = uint8(col & 0xff)
	c[1] = uint8((col >> 8) & 0xff)
	c[2] = uint8((col >> 16) & 0xff)
	c[3] = uint8((col >> 24) & 0xff)
}

func (c Colorb) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

func DuRGBA(r, g, b, a int) Colorb {
	return Colorb{uint8(r), uint8(g), uint8(b), uint8(a)}
}

func bit(a, b int) int {
	return (a & (1 << b)) >> b
}

// DuIntToCol maps an id to one of 64 distinct colours.
func DuIntToCol(i, a int) Colorb {
	r := bit(i, 1) + bit(i, 3)*2 + 1
	g := bit(i, 2) + bit(i, 4)*2 + 1
	b := bit(i, 0) + bit(i, 5)*2 + 1
	return DuRGBA(r*63, g*63, b*63, a)
}

func duMultCol(col Colorb, d int) Colorb {
	return DuRGBA(int(col.R())*d>>8, int(col.G())*d>>8, int(col.B())*d>>8, int(col.A()))
}

func DuDarkenCol(col Colorb) (res Colorb) {
	i := col.Int()
	res.FromInt(((i >> 1) & 0x007f7f7f) | (i & 0xff000000))
	return res
}
