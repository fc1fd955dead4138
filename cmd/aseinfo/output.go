package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"

	"github.com/setanarut/asesheet/sheet"
)

func printInfo(w io.Writer, e *entry) {
	s := e.sheet
	fmt.Fprintf(w, "%s (%s)\n", e.path, humanize.Bytes(uint64(e.size)))
	fmt.Fprintf(w, "  canvas: %dx%d, %d frame(s)\n", s.Width, s.Height, len(s.Frames))

	if d := e.doc; d != nil {
		h := d.Header
		fmt.Fprintf(w, "  depth: %v, flags: %#x, transparent index: %d\n", h.ColorDepth, h.Flags, h.Transparent)
		if p, ok := d.ColorProfile(); ok {
			fmt.Fprintf(w, "  color profile: type %d, gamma %.3f\n", p.Type, p.Gamma)
		}
		for _, l := range d.Layers() {
			fmt.Fprintf(w, "  layer %d %q: type %d, level %d, opacity %d, visible %v\n",
				l.Index, l.Name, l.Type, l.ChildLevel, l.Opacity, l.Visible)
		}
	}
	if m := e.manifest; m != nil {
		fmt.Fprintf(w, "  image: %s, %s %s\n", m.Meta.Image, m.Meta.App, m.Meta.Version)
	}

	var total int
	for _, f := range s.Frames {
		total += int(f.Duration.Milliseconds())
	}
	fmt.Fprintf(w, "  duration: %s ms\n", humanize.Comma(int64(total)))

	for _, name := range s.Names() {
		c, err := s.Animation(name)
		if err != nil {
			continue
		}
		reverse := ""
		if c.Reverse {
			reverse = " reverse"
		}
		fmt.Fprintf(w, "  tag %q: %d frame(s), %v%s, repeat %d, %v\n",
			name, len(c.Frames), c.Strategy, reverse, c.Repeat, c.Duration())
	}
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// exportFrames writes every frame of e as <out>/<name>_<index>.png.
func exportFrames(e *entry, out string, scale int) ([]string, error) {
	base := baseName(e.path)
	var written []string
	for _, f := range e.sheet.Frames {
		img := canvasImage(e.sheet, f)
		name := filepath.Join(out, fmt.Sprintf("%s_%d.png", base, f.Index))
		if err := writePNG(name, scaleImage(img, scale)); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

// exportAtlas writes the packed frames of e as <out>/<name>.png.
func exportAtlas(e *entry, out string, scale int) ([]string, error) {
	atlas, _ := e.sheet.Atlas()
	name := filepath.Join(out, baseName(e.path)+".png")
	if err := writePNG(name, scaleImage(atlas, scale)); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// canvasImage places a trimmed frame back at its offset on a sheet sized
// canvas. Untrimmed frames are returned as is.
func canvasImage(s *sheet.Sheet, f sheet.Frame) image.Image {
	if f.Offset == (image.Point{}) && f.Width() == s.Width && f.Height() == s.Height {
		return f.Image
	}
	dst := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	if f.Image != nil {
		r := f.Image.Bounds()
		draw.Draw(dst, r.Sub(r.Min).Add(f.Offset), f.Image, r.Min, draw.Src)
	}
	return dst
}

func scaleImage(src image.Image, scale int) image.Image {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	return dst
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return f.Close()
}
