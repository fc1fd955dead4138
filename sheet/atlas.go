package sheet

import (
	"image"
	"image/draw"
	"math"
)

// Atlas packs every frame into a single image laid out on a power-of-two
// grid and returns it along with the cell of each frame. Cells are sized to
// the largest frame. Frames are placed at their Offset inside the cell.
func (s *Sheet) Atlas() (*image.NRGBA, []image.Rectangle) {
	framew, frameh := s.Width, s.Height
	for _, f := range s.Frames {
		framew = max(framew, f.Offset.X+f.Width())
		frameh = max(frameh, f.Offset.Y+f.Height())
	}

	atlasr, framesr := makeAtlasFrames(len(s.Frames), framew, frameh)
	atlas := image.NewNRGBA(atlasr)

	for i, f := range s.Frames {
		if f.Image == nil {
			continue
		}
		src := f.Image.Bounds()
		dr := src.Sub(src.Min).Add(framesr[i].Min).Add(f.Offset)
		draw.Draw(atlas, dr, f.Image, src.Min, draw.Src)
	}
	return atlas, framesr
}

// AtlasSize returns the atlas bounds Atlas would produce for n frames of
// the given size without drawing anything.
func AtlasSize(n, framew, frameh int) image.Rectangle {
	atlasr, _ := makeAtlasFrames(n, framew, frameh)
	return atlasr
}

func makeAtlasFrames(nframes, framew, frameh int) (atlasr image.Rectangle, framesr []image.Rectangle) {
	if nframes == 0 {
		return image.Rectangle{}, nil
	}

	fw, fh := factorPowerOfTwo(nframes)
	if framew > frameh {
		fw, fh = fh, fw
	}

	atlasr = image.Rect(0, 0, fw*framew, fh*frameh)

	framesr = make([]image.Rectangle, 0, nframes)
	for i := range nframes {
		x, y := i%fw, i/fw
		framesr = append(framesr, image.Rectangle{
			Min: image.Pt(x*framew, y*frameh),
			Max: image.Pt((x+1)*framew, (y+1)*frameh),
		})
	}

	return
}

// factorPowerOfTwo computes n<=a*b, where a, b are powers of two and a >= b.
func factorPowerOfTwo(n int) (a, b int) {
	x := int(math.Ceil(math.Log2(float64(n))))
	a = 1 << (x - x/2)
	b = 1 << (x / 2)
	return
}
