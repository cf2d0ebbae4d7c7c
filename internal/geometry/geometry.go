// Package geometry computes popover anchor points from placement class tokens.
package geometry

import "strings"

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Size returns the rectangle dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// VAlign is the vertical component of a corner token.
type VAlign int

const (
	Top VAlign = iota
	Middle
	Bottom
)

// HAlign is the horizontal component of a corner token.
type HAlign int

const (
	Left HAlign = iota
	Center
	Right
)

var vNames = [...]string{Top: "top", Middle: "center", Bottom: "bottom"}
var hNames = [...]string{Left: "left", Center: "center", Right: "right"}

// fraction maps an alignment to the share of the extent it sits at.
func (v VAlign) fraction() float64 { return float64(v) / 2 }
func (h HAlign) fraction() float64 { return float64(h) / 2 }

// Corner names one of nine points on a rectangle: corners, edge midpoints and center.
type Corner struct {
	V VAlign
	H HAlign
}

// String returns the self-anchor token for the corner, e.g. "bottom-right".
func (c Corner) String() string {
	return vNames[c.V] + "-" + hNames[c.H]
}

// SelfToken returns the class token that aligns this point of the popover.
func (c Corner) SelfToken() string { return c.String() }

// AnchorToken returns the class token that targets this point of the anchor.
func (c Corner) AnchorToken() string { return AnchorPrefix + c.String() }

// MirrorV swaps top and bottom.
func (c Corner) MirrorV() Corner {
	c.V = Bottom - c.V
	return c
}

// MirrorH swaps left and right.
func (c Corner) MirrorH() Corner {
	c.H = Right - c.H
	return c
}

// AnchorPrefix prefixes anchor-point tokens.
const AnchorPrefix = "anchor-"

// ParseCorner parses a "{top,center,bottom}-{left,center,right}" token.
func ParseCorner(token string) (Corner, bool) {
	vs, hs, ok := strings.Cut(token, "-")
	if !ok {
		return Corner{}, false
	}
	var c Corner
	switch vs {
	case "top":
		c.V = Top
	case "center":
		c.V = Middle
	case "bottom":
		c.V = Bottom
	default:
		return Corner{}, false
	}
	switch hs {
	case "left":
		c.H = Left
	case "center":
		c.H = Center
	case "right":
		c.H = Right
	default:
		return Corner{}, false
	}
	return c, true
}

// AllCorners lists the nine corners in row-major order.
func AllCorners() []Corner {
	corners := make([]Corner, 0, 9)
	for v := Top; v <= Bottom; v++ {
		for h := Left; h <= Right; h++ {
			corners = append(corners, Corner{V: v, H: h})
		}
	}
	return corners
}

// Placement is the parsed form of a popover's placement tokens.
type Placement struct {
	Anchor    Corner
	HasAnchor bool
	Self      Corner
	HasSelf   bool
}

// ParsePlacement scans class tokens in order. The first anchor-point token and
// the first self-anchor token win; conflicting later tokens are ignored.
func ParsePlacement(classes []string) Placement {
	var p Placement
	for _, token := range classes {
		if rest, ok := strings.CutPrefix(token, AnchorPrefix); ok {
			if p.HasAnchor {
				continue
			}
			if c, ok := ParseCorner(rest); ok {
				p.Anchor, p.HasAnchor = c, true
			}
			continue
		}
		if p.HasSelf {
			continue
		}
		if c, ok := ParseCorner(token); ok {
			p.Self, p.HasSelf = c, true
		}
	}
	return p
}

// Tokens returns the class tokens that reproduce p.
func (p Placement) Tokens() []string {
	var tokens []string
	if p.HasAnchor {
		tokens = append(tokens, p.Anchor.AnchorToken())
	}
	if p.HasSelf {
		tokens = append(tokens, p.Self.SelfToken())
	}
	return tokens
}

// Behaviour flag tokens.
const (
	ClassOpen       = "open"
	ClassMatchWidth = "match-width"
	ClassLimitWidth = "limit-width"
	ClassFlipAlways = "flip-always"
	ClassFlipOnOpen = "flip-onopen"
)

// Flags holds the behaviour tokens present on a popover.
type Flags struct {
	Open       bool
	MatchWidth bool
	LimitWidth bool
	FlipAlways bool
	FlipOnOpen bool
}

// Flippable reports whether any flip behaviour was requested.
func (f Flags) Flippable() bool { return f.FlipAlways || f.FlipOnOpen }

// ParseFlags reads behaviour tokens from a class list.
func ParseFlags(classes []string) Flags {
	var f Flags
	for _, token := range classes {
		switch token {
		case ClassOpen:
			f.Open = true
		case ClassMatchWidth:
			f.MatchWidth = true
		case ClassLimitWidth:
			f.LimitWidth = true
		case ClassFlipAlways:
			f.FlipAlways = true
		case ClassFlipOnOpen:
			f.FlipOnOpen = true
		}
	}
	return f
}

// Position is the result of Compute: the anchor point and the adjustment that
// moves the named point of the popover onto it.
type Position struct {
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// X returns the popover's left edge.
func (p Position) X() float64 { return p.Left + p.OffsetX }

// Y returns the popover's top edge.
func (p Position) Y() float64 { return p.Top + p.OffsetY }

// ComputeOptions tunes Compute.
type ComputeOptions struct {
	// LegacyDefaultAnchor keeps the historical fallback when no anchor token is
	// present: left takes the vertical offset and top the horizontal one.
	LegacyDefaultAnchor bool
}

// Compute returns the anchor point on the anchor rectangle and the offset of
// the popover's self-anchor point. Offsets are relative to the containing
// block; anchor supplies only width and height.
func Compute(p Placement, anchor Rect, offsetLeft, offsetTop float64, self Size, opts ComputeOptions) Position {
	var pos Position

	switch {
	case p.HasAnchor:
		pos.Left = offsetLeft + anchor.Width*p.Anchor.H.fraction()
		pos.Top = offsetTop + anchor.Height*p.Anchor.V.fraction()
	case opts.LegacyDefaultAnchor:
		pos.Top = offsetLeft
		pos.Left = offsetTop
	default:
		pos.Left = offsetLeft
		pos.Top = offsetTop
	}

	if p.HasSelf {
		pos.OffsetX = -self.Width * p.Self.H.fraction()
		pos.OffsetY = -self.Height * p.Self.V.fraction()
	}

	return pos
}

// Locate returns the popover rectangle for a computed position, translated by origin.
func Locate(pos Position, self Size, originX, originY float64) Rect {
	return Rect{
		X:      originX + pos.X(),
		Y:      originY + pos.Y(),
		Width:  self.Width,
		Height: self.Height,
	}
}
