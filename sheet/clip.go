package sheet

import (
	"slices"
	"time"
)

// Strategy is what a clip does after its last frame.
type Strategy uint8

const (
	// StrategyLoop restarts from the first frame.
	StrategyLoop Strategy = iota
	// StrategyPingPong plays the frames back towards the first one.
	StrategyPingPong
)

func (s Strategy) String() string {
	switch s {
	case StrategyLoop:
		return "loop"
	case StrategyPingPong:
		return "pingpong"
	}
	return "unknown"
}

// Direction enumerates the Aseprite tag loop directions.
type Direction uint8

const (
	Forward Direction = iota
	Reverse
	PingPong
	PingPongReverse
)

// Strategy maps a tag direction onto a playback strategy and reverse flag.
func (d Direction) Strategy() (Strategy, bool) {
	switch d {
	case Reverse:
		return StrategyLoop, true
	case PingPong:
		return StrategyPingPong, false
	case PingPongReverse:
		return StrategyPingPong, true
	}
	return StrategyLoop, false
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case PingPong:
		return "pingpong"
	case PingPongReverse:
		return "pingpong_reverse"
	}
	return "unknown"
}

// ParseDirection maps the direction strings used by Aseprite's JSON export.
// Unknown strings, including the empty string, are Forward.
func ParseDirection(s string) Direction {
	switch s {
	case "reverse":
		return Reverse
	case "pingpong":
		return PingPong
	case "pingpong_reverse":
		return PingPongReverse
	}
	return Forward
}

// Clip is a named animation over a contiguous run of frames.
type Clip struct {
	Name string
	// Frames in document order unless the clip was built reversed.
	Frames   []Frame
	Strategy Strategy
	// Reverse plays Frames back to front.
	Reverse bool
	// Repeat is the number of times the tag asks to be played. 0 means forever.
	Repeat uint16
}

// Duration returns the summed duration of the clip frames.
func (c *Clip) Duration() (d time.Duration) {
	for _, f := range c.Frames {
		d += f.Duration
	}
	return
}

// Sequence returns the frames of one playback cycle with Reverse and
// PingPong applied. A ping-pong cycle does not repeat its end frames.
func (c *Clip) Sequence() []Frame {
	frames := slices.Clone(c.Frames)
	if c.Reverse {
		slices.Reverse(frames)
	}
	if c.Strategy == StrategyPingPong {
		for i := len(frames) - 2; i > 0; i-- {
			frames = append(frames, frames[i])
		}
	}
	return frames
}
