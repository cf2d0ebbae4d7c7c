// Package flip decides when a popover should be mirrored to stay inside the viewport.
package flip

import (
	"fmt"

	"github.com/jmylchreest/popanchor/internal/geometry"
)

// Direction names the way a popover is moved when flipped.
type Direction int

const (
	None Direction = iota
	Top
	Bottom
	Left
	Right
	TopAndLeft
	TopAndRight
	BottomAndLeft
	BottomAndRight
)

var directionNames = map[Direction]string{
	None:           "none",
	Top:            "top",
	Bottom:         "bottom",
	Left:           "left",
	Right:          "right",
	TopAndLeft:     "top-and-left",
	TopAndRight:    "top-and-right",
	BottomAndLeft:  "bottom-and-left",
	BottomAndRight: "bottom-and-right",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses a direction name as produced by String.
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if name == s {
			return d, nil
		}
	}
	return None, fmt.Errorf("unknown flip direction %q", s)
}

// Vertical reports whether d moves the popover up or down.
func (d Direction) Vertical() bool {
	switch d {
	case Top, Bottom, TopAndLeft, TopAndRight, BottomAndLeft, BottomAndRight:
		return true
	}
	return false
}

// Horizontal reports whether d moves the popover sideways.
func (d Direction) Horizontal() bool {
	switch d {
	case Left, Right, TopAndLeft, TopAndRight, BottomAndLeft, BottomAndRight:
		return true
	}
	return false
}

// Bounds is the usable area of the viewport.
type Bounds struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Viewport returns the bounds of a window minus the app bars at its top and bottom.
func Viewport(width, height, topBars, bottomBars float64) Bounds {
	return Bounds{
		Top:    topBars,
		Right:  width,
		Bottom: height - bottomBars,
	}
}

// Overflow holds how far a rectangle extends past each edge. Positive values
// overflow, zero or negative values fit.
type Overflow struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Measure returns the four directional deltas of r against b.
func Measure(r geometry.Rect, b Bounds) Overflow {
	return Overflow{
		Top:    b.Top - r.Y,
		Bottom: r.Bottom() - b.Bottom,
		Left:   b.Left - r.X,
		Right:  r.Right() - b.Right,
	}
}

// Any reports whether any edge overflows.
func (o Overflow) Any() bool {
	return o.Top > 0 || o.Bottom > 0 || o.Left > 0 || o.Right > 0
}

// candidates lists the flips tried for each self-anchor corner, in order.
var candidates = map[geometry.Corner][]Direction{
	{V: geometry.Top, H: geometry.Left}:      {TopAndLeft, Top, Left},
	{V: geometry.Top, H: geometry.Center}:    {Top},
	{V: geometry.Top, H: geometry.Right}:     {TopAndRight, Top, Right},
	{V: geometry.Middle, H: geometry.Left}:   {Left},
	{V: geometry.Middle, H: geometry.Right}:  {Right},
	{V: geometry.Bottom, H: geometry.Left}:   {BottomAndLeft, Bottom, Left},
	{V: geometry.Bottom, H: geometry.Center}: {Bottom},
	{V: geometry.Bottom, H: geometry.Right}:  {BottomAndRight, Bottom, Right},
}

// Candidates returns the ordered flips considered for a self-anchor corner.
func Candidates(self geometry.Corner) []Direction {
	return candidates[self]
}

// Locator returns the absolute rectangle a popover would occupy with placement p.
type Locator func(p geometry.Placement) geometry.Rect

// Resolve picks the first candidate flip whose trigger overflow is present in
// the current placement and whose mirrored placement has room on the opposite
// side. It returns None when nothing applies.
func Resolve(p geometry.Placement, b Bounds, locate Locator) Direction {
	if !p.HasSelf {
		return None
	}
	list := Candidates(p.Self)
	if len(list) == 0 {
		return None
	}

	current := Measure(locate(p), b)
	for _, d := range list {
		flipped := Measure(locate(Apply(p, d)), b)
		if accepts(d, current, flipped) {
			return d
		}
	}
	return None
}

func accepts(d Direction, current, flipped Overflow) bool {
	switch d {
	case Top:
		return fitsUp(current, flipped)
	case Bottom:
		return fitsDown(current, flipped)
	case Left:
		return fitsLeft(current, flipped)
	case Right:
		return fitsRight(current, flipped)
	case TopAndLeft:
		return fitsUp(current, flipped) && fitsLeft(current, flipped)
	case TopAndRight:
		return fitsUp(current, flipped) && fitsRight(current, flipped)
	case BottomAndLeft:
		return fitsDown(current, flipped) && fitsLeft(current, flipped)
	case BottomAndRight:
		return fitsDown(current, flipped) && fitsRight(current, flipped)
	}
	return false
}

func fitsUp(current, flipped Overflow) bool    { return current.Bottom > 0 && flipped.Top <= 0 }
func fitsDown(current, flipped Overflow) bool  { return current.Top > 0 && flipped.Bottom <= 0 }
func fitsLeft(current, flipped Overflow) bool  { return current.Right > 0 && flipped.Left <= 0 }
func fitsRight(current, flipped Overflow) bool { return current.Left > 0 && flipped.Right <= 0 }
