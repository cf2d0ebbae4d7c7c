package flip

import (
	"strings"

	"github.com/jmylchreest/popanchor/internal/geometry"
)

// replacement maps the self-anchor and anchor-point corners touched by one
// flip direction. Corners missing from a map are left as they are.
type replacement struct {
	self   map[geometry.Corner]geometry.Corner
	anchor map[geometry.Corner]geometry.Corner
}

func row(v geometry.VAlign) []geometry.Corner {
	return []geometry.Corner{{V: v, H: geometry.Left}, {V: v, H: geometry.Center}, {V: v, H: geometry.Right}}
}

func column(h geometry.HAlign) []geometry.Corner {
	return []geometry.Corner{{V: geometry.Top, H: h}, {V: geometry.Middle, H: h}, {V: geometry.Bottom, H: h}}
}

func corner(v geometry.VAlign, h geometry.HAlign) []geometry.Corner {
	return []geometry.Corner{{V: v, H: h}}
}

func mirrorBoth(c geometry.Corner) geometry.Corner { return c.MirrorV().MirrorH() }

func table(mirror func(geometry.Corner) geometry.Corner, sets ...[]geometry.Corner) map[geometry.Corner]geometry.Corner {
	m := make(map[geometry.Corner]geometry.Corner)
	for _, set := range sets {
		for _, c := range set {
			m[c] = mirror(c)
		}
	}
	return m
}

var (
	vertical   = geometry.Corner.MirrorV
	horizontal = geometry.Corner.MirrorH

	verticalAnchors   = table(vertical, row(geometry.Top), row(geometry.Bottom))
	horizontalAnchors = table(horizontal, column(geometry.Left), column(geometry.Right))
	diagonalAnchors   = table(mirrorBoth,
		corner(geometry.Top, geometry.Left), corner(geometry.Top, geometry.Right),
		corner(geometry.Bottom, geometry.Left), corner(geometry.Bottom, geometry.Right),
		corner(geometry.Top, geometry.Center), corner(geometry.Bottom, geometry.Center),
		corner(geometry.Middle, geometry.Left), corner(geometry.Middle, geometry.Right),
	)
)

// replacements is the fixed substitution table for each flip direction.
var replacements = map[Direction]replacement{
	Top:    {self: table(vertical, row(geometry.Top)), anchor: verticalAnchors},
	Bottom: {self: table(vertical, row(geometry.Bottom)), anchor: verticalAnchors},
	Left:   {self: table(horizontal, column(geometry.Left)), anchor: horizontalAnchors},
	Right:  {self: table(horizontal, column(geometry.Right)), anchor: horizontalAnchors},

	TopAndLeft:     {self: table(mirrorBoth, corner(geometry.Top, geometry.Left)), anchor: diagonalAnchors},
	TopAndRight:    {self: table(mirrorBoth, corner(geometry.Top, geometry.Right)), anchor: diagonalAnchors},
	BottomAndLeft:  {self: table(mirrorBoth, corner(geometry.Bottom, geometry.Left)), anchor: diagonalAnchors},
	BottomAndRight: {self: table(mirrorBoth, corner(geometry.Bottom, geometry.Right)), anchor: diagonalAnchors},
}

// Apply returns p with its corners substituted through the table for d.
func Apply(p geometry.Placement, d Direction) geometry.Placement {
	r, ok := replacements[d]
	if !ok {
		return p
	}
	if p.HasSelf {
		if c, ok := r.self[p.Self]; ok {
			p.Self = c
		}
	}
	if p.HasAnchor {
		if c, ok := r.anchor[p.Anchor]; ok {
			p.Anchor = c
		}
	}
	return p
}

// ReplaceTokens substitutes placement tokens in a class list through the
// table for d. Other tokens pass through unchanged.
func ReplaceTokens(classes []string, d Direction) []string {
	r, ok := replacements[d]
	out := make([]string, len(classes))
	copy(out, classes)
	if !ok {
		return out
	}

	for i, token := range out {
		if rest, isAnchor := strings.CutPrefix(token, geometry.AnchorPrefix); isAnchor {
			if c, ok := geometry.ParseCorner(rest); ok {
				if m, ok := r.anchor[c]; ok {
					out[i] = m.AnchorToken()
				}
			}
			continue
		}
		if c, ok := geometry.ParseCorner(token); ok {
			if m, ok := r.self[c]; ok {
				out[i] = m.SelfToken()
			}
		}
	}
	return out
}
