// Package aseparser implements a decoder for Aseprite sprite files.
//
// Aseprite file format spec: https://github.com/aseprite/aseprite/blob/main/docs/ase-file-specs.md
//
// Parse turns a complete file into a Document: every frame composited into
// an *image.NRGBA canvas, plus the tags, layers and palette it was built from.
// The frames and tag clips are exposed through the sheet package.
package aseparser

import (
	"image"
	"image/color"
	"maps"
	"slices"

	"github.com/setanarut/asesheet/sheet"
)

// ColorDepth is the number of bits per pixel of a document.
type ColorDepth uint16

const (
	Indexed   ColorDepth = 8
	Grayscale ColorDepth = 16
	Truecolor ColorDepth = 32
)

func (d ColorDepth) bytesPerPixel() int { return int(d) / 8 }

func (d ColorDepth) valid() bool {
	return d == Indexed || d == Grayscale || d == Truecolor
}

func (d ColorDepth) String() string {
	switch d {
	case Indexed:
		return "indexed"
	case Grayscale:
		return "grayscale"
	case Truecolor:
		return "truecolor"
	}
	return "unknown"
}

// Header is the fixed 128 byte file header.
type Header struct {
	FileSize    int
	Frames      int
	Width       int
	Height      int
	ColorDepth  ColorDepth
	Flags       uint32
	Speed       uint16 // deprecated, use frame durations
	Transparent uint8  // palette entry of the transparent color, indexed only
	NumColors   int
	PixelWidth  uint8
	PixelHeight uint8
	GridX       int
	GridY       int
	GridWidth   int
	GridHeight  int
}

// LayerOpacityValid reports header flag bit 0. It is informational; layer
// opacity is always applied when compositing.
func (h Header) LayerOpacityValid() bool { return h.Flags&1 != 0 }

// LayerFlags holds the layer chunk flag bits.
type LayerFlags uint16

const (
	LayerVisible   LayerFlags = 1
	LayerEditable  LayerFlags = 2
	LayerLocked    LayerFlags = 4
	LayerBG        LayerFlags = 8
	LayerReference LayerFlags = 64
)

// LayerType is a normal, group or tilemap layer.
type LayerType uint16

const (
	LayerNormal LayerType = iota
	LayerGroup
	LayerTilemap
)

// Layer is a decoded layer chunk.
type Layer struct {
	// Index is the position of the layer in encounter order.
	Index      int
	Name       string
	Flags      LayerFlags
	Type       LayerType
	ChildLevel int
	BlendMode  uint16
	Opacity    uint8
	// Visible is false for hidden layers, reference layers and layers
	// inside a hidden group.
	Visible bool
}

// Tag is an animation tag.
type Tag struct {
	// Name is the name of the tag. Later tags replace earlier ones with the same name.
	Name string
	// From is the first frame in the animation.
	From int
	// To is the last frame in the animation, inclusive.
	To        int
	Direction sheet.Direction
	// Repeat specifies how many times to repeat the animation. 0 means forever.
	Repeat uint16
	// Color is the deprecated tag color.
	Color color.NRGBA
}

// Palette maps color indices to colors. Entries never defined by a palette
// chunk are transparent.
type Palette [256]color.NRGBA

// ColorProfile is the color profile chunk. ICC data is not kept.
type ColorProfile struct {
	Type  uint16 // 0 none, 1 sRGB, 2 ICC
	Flags uint16
	// Gamma is only meaningful when Flags&1 is set.
	Gamma float64
}

// Document holds the results of a parsed Aseprite file.
type Document struct {
	Header Header

	sheet   *sheet.Sheet
	layers  []Layer
	tags    []Tag
	palette Palette
	profile *ColorProfile
}

// SpriteSheet returns a copy of every frame in document order. Images are
// shared with the sheet.
func (d *Document) SpriteSheet() []sheet.Frame {
	return slices.Clone(d.sheet.Frames)
}

// FrameImage returns the composited canvas of frame i.
func (d *Document) FrameImage(i int) (*image.NRGBA, error) {
	f, err := d.sheet.Frame(i)
	if err != nil {
		return nil, err
	}
	return f.Image.(*image.NRGBA), nil
}

// Animation returns the clip for the named tag. The empty name returns the
// clip holding every frame. Unknown names fail with sheet.ErrNotFound.
func (d *Document) Animation(name string) (*sheet.Clip, error) {
	return d.sheet.Animation(name)
}

// Animations returns every tag clip plus the all-frames clip under "".
// A tag named "" never replaces the all-frames clip, it is only listed by
// Tags.
func (d *Document) Animations() map[string]*sheet.Clip {
	return d.sheet.Animations()
}

// Sheet returns the underlying sprite sheet.
func (d *Document) Sheet() *sheet.Sheet { return d.sheet }

// Layers returns the layers in index order.
func (d *Document) Layers() []Layer { return slices.Clone(d.layers) }

// Tags returns the tags in the order they were read, duplicates and tags
// with an empty name included.
func (d *Document) Tags() []Tag { return slices.Clone(d.tags) }

// Palette returns the palette as it stood after the last frame.
func (d *Document) Palette() Palette { return d.palette }

// ColorProfile returns the color profile, if the file has one.
func (d *Document) ColorProfile() (ColorProfile, bool) {
	if d.profile == nil {
		return ColorProfile{}, false
	}
	return *d.profile, true
}

// TagNames returns the distinct tag names, sorted.
func (d *Document) TagNames() []string {
	names := make(map[string]struct{}, len(d.tags))
	for _, t := range d.tags {
		names[t.Name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names))
}
