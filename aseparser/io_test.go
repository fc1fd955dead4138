package aseparser

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/setanarut/asesheet/sheet"
)

func TestImageDecode(t *testing.T) {
	data := threeFrameDoc(sheet.Forward).bytes()

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "aseprite" {
		t.Errorf("format = %q", format)
	}
	// 3 frames of 2x2 pack into a 2x2 grid.
	if got, want := img.Bounds(), image.Rect(0, 0, 4, 4); got != want {
		t.Errorf("bounds = %v, want %v", got, want)
	}
	if got := color.NRGBAModel.Convert(img.At(0, 0)); got != red {
		t.Errorf("atlas(0, 0) = %v, want red", got)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "aseprite" || cfg.Width != 4 || cfg.Height != 4 || cfg.ColorModel != color.NRGBAModel {
		t.Errorf("config = %+v, %q", cfg, format)
	}
}

func TestDecodeConfigInvalid(t *testing.T) {
	data := threeFrameDoc(sheet.Forward).bytes()
	data[5] = 0
	if _, err := DecodeConfig(bytes.NewReader(data)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
	if _, err := DecodeConfig(bytes.NewReader(data[:10])); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("short: err = %v, want ErrOutOfBounds", err)
	}
}

func TestNewDocumentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.aseprite")
	if err := os.WriteFile(path, threeFrameDoc(sheet.PingPong).bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewDocumentFromFile(path, WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.SpriteSheet()) != 3 {
		t.Errorf("frames = %d, want 3", len(doc.SpriteSheet()))
	}

	if _, err := NewDocumentFromFile(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestParseAll(t *testing.T) {
	docs := [][]byte{
		threeFrameDoc(sheet.Forward).bytes(),
		threeFrameDoc(sheet.Reverse).bytes(),
		threeFrameDoc(sheet.PingPong).bytes(),
	}
	out, err := ParseAll(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []bool{false, true, false} {
		c, err := out[i].Animation("Loop")
		if err != nil {
			t.Fatal(err)
		}
		if c.Reverse != want {
			t.Errorf("document %d reverse = %v, want %v", i, c.Reverse, want)
		}
	}

	docs = append(docs, []byte("garbage"))
	if out, err := ParseAll(context.Background(), docs); err == nil || out != nil {
		t.Errorf("ParseAll with bad document = %v, %v", out, err)
	}
}

func TestParseAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseAll(ctx, [][]byte{threeFrameDoc(sheet.Forward).bytes()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReadFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.aseprite": {Data: threeFrameDoc(sheet.Forward).bytes()},
		"b.aseprite": {Data: threeFrameDoc(sheet.PingPongReverse).bytes()},
	}

	out, err := ReadFiles(context.Background(), fsys, "a.aseprite", "b.aseprite")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if c, _ := out[1].Animation("Loop"); c.Strategy != sheet.StrategyPingPong || !c.Reverse {
		t.Errorf("b.aseprite Loop = %v, reverse %v", c.Strategy, c.Reverse)
	}

	if _, err := ReadFiles(context.Background(), fsys, "a.aseprite", "c.aseprite"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
}
