package aseparser

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/setanarut/asesheet/sheet"
)

func init() {
	image.RegisterFormat("aseprite", "????\xE0\xA5", Decode, DecodeConfig)
}

// NewDocumentFromFile loads and parses an Aseprite file from the given path.
func NewDocumentFromFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, opts...)
}

// NewDocumentFromFileSystem loads and parses an Aseprite file from the given fs path.
func NewDocumentFromFileSystem(fsys fs.FS, path string, opts ...Option) (*Document, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

// Read decodes an Aseprite document from r.
func Read(r io.Reader, opts ...Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

// Decode decodes an Aseprite file from r and returns every frame packed
// into a single atlas image.
func Decode(r io.Reader) (image.Image, error) {
	doc, err := Read(r)
	if err != nil {
		return nil, err
	}
	atlas, _ := doc.sheet.Atlas()
	return atlas, nil
}

// DecodeConfig returns the color model and dimensions of the atlas Decode
// would return, reading only the file header.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return image.Config{}, &DecodeError{Stage: StageHeader, Frame: -1, Err: fmt.Errorf("%w: %v", ErrOutOfBounds, err)}
	}

	if magic := binary.LittleEndian.Uint16(hdr[4:]); magic != fileMagic {
		return image.Config{}, &DecodeError{Stage: StageHeader, Frame: -1, Offset: 4, Err: ErrInvalidMagic}
	}

	c := newCursor(hdr[:])
	h, err := readHeader(c)
	if err != nil {
		return image.Config{}, &DecodeError{Stage: StageHeader, Frame: -1, Offset: c.offset(), Err: err}
	}

	atlasr := sheet.AtlasSize(h.Frames, h.Width, h.Height)
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      atlasr.Dx(),
		Height:     atlasr.Dy(),
	}, nil
}

// ParseAll parses independent documents concurrently. Results are in input
// order. The first failure cancels documents not yet started.
func ParseAll(ctx context.Context, docs [][]byte, opts ...Option) ([]*Document, error) {
	out := make([]*Document, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, data := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := Parse(data, opts...)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFiles reads and parses the named files of fsys concurrently.
func ReadFiles(ctx context.Context, fsys fs.FS, paths ...string) ([]*Document, error) {
	out := make([]*Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := NewDocumentFromFileSystem(fsys, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
