package aseplayer

import (
	"errors"
	"image"
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/setanarut/asesheet/sheet"
)

const (
	tagFly    = "fly"
	tagSubFly = "sub_fly"
	tagOnce   = "once"
)

var ase *AnimPlayer

// birdSheet has 4 frames of 8x8; frame 3 is trimmed to 4x4 at (2, 3).
func birdSheet() *sheet.Sheet {
	frames := make([]sheet.Frame, 4)
	for i := range frames {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		img.SetNRGBA(0, 0, color.NRGBA{R: uint8(i), A: 255})
		frames[i] = sheet.Frame{Index: i, Image: img, Duration: 62 * time.Millisecond}
	}
	frames[2].Duration = 100 * time.Millisecond
	frames[3].Image = image.NewNRGBA(image.Rect(0, 0, 4, 4))
	frames[3].Offset = image.Pt(2, 3)

	s := sheet.New(8, 8, frames)
	for _, c := range []struct {
		name     string
		from, to int
		dir      sheet.Direction
		repeat   uint16
	}{
		{tagFly, 0, 3, sheet.Forward, 0},
		{tagSubFly, 2, 3, sheet.PingPong, 0},
		{tagOnce, 0, 1, sheet.Reverse, 1},
	} {
		clip, err := s.NewClip(c.name, c.from, c.to, c.dir, c.repeat)
		if err != nil {
			panic(err)
		}
		s.AddClip(clip)
	}
	return s
}

func TestMain(m *testing.M) {
	var err error
	ase, err = NewAnimPlayer(birdSheet(), tagFly)
	if err != nil {
		panic(err)
	}
	exitCode := m.Run()
	os.Exit(exitCode)
}

func TestAnimationWorkflow(t *testing.T) {
	// 1. tags
	t.Run("Check Tags", func(t *testing.T) {
		anim1 := ase.Animations[tagFly]
		anim2 := ase.Animations[tagSubFly]
		if anim1 == nil || anim2 == nil || ase.Animations[""] == nil {
			t.Fatal("Tags missing")
		}
		if ase.CurrentAnimation != anim1 {
			t.Errorf("current animation = %q, want %q", ase.CurrentAnimation.Tag, tagFly)
		}
	})

	// 2. frame pointers
	t.Run("Frame Image Pointers", func(t *testing.T) {
		if ase.Animations[tagFly].Frames[2].Image != ase.Animations[tagSubFly].Frames[0].Image {
			t.Errorf("Sub-tag images are not equal!")
		}
		// ping-pong over 2 frames has no inner frames to repeat
		if n := len(ase.Animations[tagSubFly].Frames); n != 2 {
			t.Errorf("sub_fly frames = %d, want 2", n)
		}
		if ase.Animations[tagOnce].Frames[0].Image != ase.Animations[tagFly].Frames[1].Image {
			t.Errorf("reverse images are not equal!")
		}
	})

	// 3. Durations
	t.Run("Durations", func(t *testing.T) {
		want := 100 * time.Millisecond
		dur := ase.Animations[tagSubFly].Frames[0].Duration
		if dur != want {
			t.Errorf("Duration is wrong! Got %v, want %v", dur, want)
		}

		dur = ase.Animations[tagFly].Frames[0].Duration
		want = 62 * time.Millisecond
		if dur != want {
			t.Errorf("Duration is wrong! Got %v, want %v", dur, want)
		}
	})

	// 4. Trimmed frames
	t.Run("Pivot", func(t *testing.T) {
		f := ase.Animations[tagFly].Frames[3]
		if f.Pivot.X != 2 || f.Pivot.Y != 3 {
			t.Errorf("pivot = %v, want (2, 3)", f.Pivot)
		}
		if b := f.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
			t.Errorf("bounds = %v, want 4x4", b)
		}
	})
}

func TestUpdate(t *testing.T) {
	ap, err := NewAnimPlayer(birdSheet(), tagOnce)
	if err != nil {
		t.Fatal(err)
	}

	ap.Update(61 * time.Millisecond)
	if ap.CurrentFrame != &ap.CurrentAnimation.Frames[0] {
		t.Error("frame advanced before its duration")
	}
	ap.Update(time.Millisecond)
	if ap.CurrentFrame != &ap.CurrentAnimation.Frames[1] {
		t.Error("frame did not advance")
	}

	ap.Update(62 * time.Millisecond)
	if !ap.IsEnded() {
		t.Fatal("animation with repeat 1 did not end")
	}
	if ap.CurrentFrame != &ap.CurrentAnimation.Frames[1] {
		t.Error("ended animation is not on its last frame")
	}

	ap.Rewind()
	ap.Paused = true
	ap.Update(time.Second)
	if ap.IsEnded() || ap.CurrentFrame != &ap.CurrentAnimation.Frames[0] {
		t.Error("paused animation advanced")
	}
}

func TestPlay(t *testing.T) {
	ap, err := NewAnimPlayer(birdSheet(), "")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(ap.CurrentAnimation.Frames); n != 4 {
		t.Errorf("all frames animation has %d frames", n)
	}

	if err := ap.Play("DoesNotExist"); !errors.Is(err, sheet.ErrNotFound) {
		t.Errorf("err = %v, want sheet.ErrNotFound", err)
	}
	if ap.CurrentAnimation.Tag != "" {
		t.Error("failed Play changed the animation")
	}

	if err := ap.PlayIfNotCurrent(tagSubFly); err != nil {
		t.Fatal(err)
	}
	ap.Update(100 * time.Millisecond)
	if err := ap.PlayIfNotCurrent(tagSubFly); err != nil {
		t.Fatal(err)
	}
	if ap.CurrentFrame != &ap.CurrentAnimation.Frames[1] {
		t.Error("PlayIfNotCurrent rewound the current animation")
	}
	if ap.String() == "" {
		t.Error("empty debug string")
	}

	if _, err := NewAnimPlayer(sheet.New(1, 1, nil), ""); err == nil {
		t.Error("empty sheet accepted")
	}
}
