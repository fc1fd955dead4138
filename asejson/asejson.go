// Package asejson builds sprite sheets from Aseprite's JSON export: a
// manifest of frame rectangles plus the packed sheet image.
package asejson

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"slices"
	"time"

	"github.com/setanarut/asesheet/sheet"
)

// ErrManifest is returned for manifests that cannot be decoded or do not
// match their image.
var ErrManifest = errors.New("asejson: invalid manifest")

type subImager interface {
	SubImage(image.Rectangle) image.Image
}

// New slices img into the frames listed by m and builds a clip for every
// frame tag. Reverse tags store their frames back to front, so every clip
// it returns has Reverse unset.
func New(m *Manifest, img image.Image) (*sheet.Sheet, error) {
	bounds := img.Bounds()
	frames := make([]sheet.Frame, len(m.Frames))

	for i, fe := range m.Frames {
		if fe.Rotated {
			return nil, fmt.Errorf("%w: frame %d %q is rotated", ErrManifest, i, fe.Filename)
		}
		r := image.Rect(fe.Frame.X, fe.Frame.Y, fe.Frame.X+fe.Frame.W, fe.Frame.Y+fe.Frame.H).Add(bounds.Min)
		if fe.Frame.W < 0 || fe.Frame.H < 0 || !r.In(bounds) {
			return nil, fmt.Errorf("%w: frame %d %q rect %v outside image %v", ErrManifest, i, fe.Filename, r, bounds)
		}
		frames[i] = sheet.Frame{
			Index:    i,
			Image:    subImage(img, r),
			Duration: time.Duration(fe.Duration) * time.Millisecond,
			Offset:   image.Pt(fe.SpriteSourceSize.X, fe.SpriteSourceSize.Y),
		}
	}

	w, h := m.Meta.Size.W, m.Meta.Size.H
	if len(m.Frames) > 0 {
		w, h = m.Frames[0].SourceSize.W, m.Frames[0].SourceSize.H
	}
	s := sheet.New(w, h, frames)

	for _, tag := range m.Meta.FrameTags {
		var repeat uint16
		if tag.Repeat != "" {
			n, err := tag.Repeat.Int64()
			if err != nil || n < 0 || n > 0xFFFF {
				return nil, fmt.Errorf("%w: tag %q repeat %q", ErrManifest, tag.Name, tag.Repeat)
			}
			repeat = uint16(n)
		}

		c, err := s.NewClip(tag.Name, tag.From, tag.To, sheet.ParseDirection(tag.Direction), repeat)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrManifest, err)
		}
		if c.Reverse {
			c.Frames = slices.Clone(c.Frames)
			slices.Reverse(c.Frames)
			c.Reverse = false
		}
		s.AddClip(c)
	}

	return s, nil
}

// subImage shares pixels with img when it can and copies otherwise.
func subImage(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Rect, img, r.Min, draw.Src)
	return dst
}
