package dom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/popanchor/internal/geometry"
)

// PositionMode mirrors the CSS position property.
type PositionMode int

const (
	PositionStatic PositionMode = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
)

var positionNames = [...]string{
	PositionStatic:   "static",
	PositionRelative: "relative",
	PositionAbsolute: "absolute",
	PositionFixed:    "fixed",
}

func (m PositionMode) String() string {
	if int(m) < len(positionNames) {
		return positionNames[m]
	}
	return fmt.Sprintf("PositionMode(%d)", int(m))
}

// ParsePositionMode parses "static", "relative", "absolute" or "fixed".
// An empty string is static.
func ParsePositionMode(s string) (PositionMode, error) {
	if s == "" {
		return PositionStatic, nil
	}
	for i, name := range positionNames {
		if name == s {
			return PositionMode(i), nil
		}
	}
	return PositionStatic, fmt.Errorf("unknown position %q", s)
}

// Style property names the placement engine reads or writes.
const (
	StyleLeft     = "left"
	StyleTop      = "top"
	StyleWidth    = "width"
	StyleMinWidth = "min-width"
	StyleMaxWidth = "max-width"
)

// Element is a node of the document tree.
//
// Its frame holds the offset from its containing block (X, Y) and its
// intrinsic size. Absolute and fixed elements take their offset from the left
// and top styles when set.
type Element struct {
	doc      *Document
	id       string
	classes  []string
	attrs    map[string]string
	style    map[string]string
	parent   *Element
	children []*Element

	position   PositionMode
	frame      geometry.Rect
	scrollable bool
	scrollX    float64
	scrollY    float64

	styleWrites int
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Parent returns the parent element, or nil when detached or root.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// AppendChild moves child under e.
func (e *Element) AppendChild(child *Element) {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	e.doc.flushResize()
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	e.parent.removeChild(e)
	e.parent = nil
	e.doc.flushResize()
}

func (e *Element) removeChild(child *Element) {
	if i := slices.Index(e.children, child); i >= 0 {
		e.children = slices.Delete(e.children, i, i+1)
	}
}

// Connected reports whether e is attached to the document root.
func (e *Element) Connected() bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur == e.doc.root {
			return true
		}
	}
	return false
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}

// Classes returns a copy of the class list in order.
func (e *Element) Classes() []string {
	return slices.Clone(e.classes)
}

// HasClass reports whether token is in the class list.
func (e *Element) HasClass(token string) bool {
	return slices.Contains(e.classes, token)
}

// AddClass appends tokens not already present.
func (e *Element) AddClass(tokens ...string) {
	next := slices.Clone(e.classes)
	for _, t := range tokens {
		if t != "" && !slices.Contains(next, t) {
			next = append(next, t)
		}
	}
	e.setClasses(next)
}

// RemoveClass removes tokens from the class list.
func (e *Element) RemoveClass(tokens ...string) {
	next := slices.DeleteFunc(slices.Clone(e.classes), func(c string) bool {
		return slices.Contains(tokens, c)
	})
	e.setClasses(next)
}

// ToggleClass adds or removes token and reports whether it is now present.
func (e *Element) ToggleClass(token string) bool {
	if e.HasClass(token) {
		e.RemoveClass(token)
		return false
	}
	e.AddClass(token)
	return true
}

// SetClasses replaces the class list, dropping duplicates and empty tokens.
func (e *Element) SetClasses(tokens []string) {
	next := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" && !slices.Contains(next, t) {
			next = append(next, t)
		}
	}
	e.setClasses(next)
}

// SetClassName replaces the class list from a space separated string.
func (e *Element) SetClassName(s string) {
	e.SetClasses(strings.Fields(s))
}

func (e *Element) setClasses(next []string) {
	if slices.Equal(next, e.classes) {
		return
	}
	old := e.classes
	e.classes = next
	e.doc.notifyClass(e, old)
	e.doc.flushResize()
}

// Attr returns the attribute value and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// HasAttr reports whether the attribute is set.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(name, value string) {
	e.attrs[name] = value
}

// RemoveAttr removes an attribute.
func (e *Element) RemoveAttr(name string) {
	delete(e.attrs, name)
}

// Style returns an inline style value, or "" when unset.
func (e *Element) Style(prop string) string {
	return e.style[prop]
}

// SetStyle sets an inline style. Writing the current value is a no-op and does
// not count as a write.
func (e *Element) SetStyle(prop, value string) {
	if value == "" {
		e.RemoveStyle(prop)
		return
	}
	if cur, ok := e.style[prop]; ok && cur == value {
		return
	}
	e.style[prop] = value
	e.styleWrites++
	e.doc.flushResize()
}

// RemoveStyle clears an inline style.
func (e *Element) RemoveStyle(prop string) {
	if _, ok := e.style[prop]; !ok {
		return
	}
	delete(e.style, prop)
	e.styleWrites++
	e.doc.flushResize()
}

// StyleWrites returns how many inline style changes have been made to e.
func (e *Element) StyleWrites() int { return e.styleWrites }

// Position returns the positioning mode.
func (e *Element) Position() PositionMode { return e.position }

// SetPosition changes the positioning mode.
func (e *Element) SetPosition(m PositionMode) {
	e.position = m
	e.doc.flushResize()
}

// Positioned reports whether e establishes a containing block.
func (e *Element) Positioned() bool { return e.position != PositionStatic }

// Frame returns the offset and intrinsic size.
func (e *Element) Frame() geometry.Rect { return e.frame }

// SetFrame replaces the offset and intrinsic size.
func (e *Element) SetFrame(r geometry.Rect) {
	if r == e.frame {
		return
	}
	e.frame = r
	e.doc.flushResize()
}

// Scrollable reports whether e scrolls its content.
func (e *Element) Scrollable() bool { return e.scrollable }

// SetScrollable marks e as a scroll container.
func (e *Element) SetScrollable(v bool) { e.scrollable = v }

// ScrollOffset returns the current scroll position.
func (e *Element) ScrollOffset() (x, y float64) { return e.scrollX, e.scrollY }

// ScrollTo scrolls e and notifies scroll listeners. Elements that are not
// scrollable ignore the call.
func (e *Element) ScrollTo(x, y float64) {
	if !e.scrollable || (x == e.scrollX && y == e.scrollY) {
		return
	}
	e.scrollX, e.scrollY = x, y
	e.doc.notifyScroll(e)
}

// ContainingBlock returns the nearest positioned ancestor. The root is the
// outermost containing block; detached elements have none.
func (e *Element) ContainingBlock() *Element {
	if !e.Connected() || e == e.doc.root {
		return nil
	}
	for cur := e.parent; cur != nil; cur = cur.parent {
		if cur.Positioned() || cur == e.doc.root {
			return cur
		}
	}
	return nil
}

// Size returns the rendered size: the intrinsic size adjusted by the width,
// max-width and min-width styles.
func (e *Element) Size() geometry.Size {
	w := e.frame.Width
	if v, ok := ParsePx(e.style[StyleWidth]); ok {
		w = v
	}
	if v, ok := ParsePx(e.style[StyleMaxWidth]); ok && w > v {
		w = v
	}
	if v, ok := ParsePx(e.style[StyleMinWidth]); ok && w < v {
		w = v
	}
	return geometry.Size{Width: w, Height: e.frame.Height}
}

// BoundingRect returns the element's rectangle in window coordinates.
func (e *Element) BoundingRect() geometry.Rect {
	size := e.Size()
	if e == e.doc.root {
		return geometry.Rect{Width: size.Width, Height: size.Height}
	}

	x, y := e.frame.X, e.frame.Y
	if e.position == PositionAbsolute || e.position == PositionFixed {
		if v, ok := ParsePx(e.style[StyleLeft]); ok {
			x = v
		}
		if v, ok := ParsePx(e.style[StyleTop]); ok {
			y = v
		}
	}

	ox, oy := e.OffsetOrigin()
	return geometry.Rect{X: ox + x, Y: oy + y, Width: size.Width, Height: size.Height}
}

// OffsetOrigin returns the window point that the element's frame offset and
// its left/top styles are measured from. Fixed elements are measured from the
// window; everything else from its containing block, shifted by the scroll
// offsets of the scroll containers between the two.
func (e *Element) OffsetOrigin() (x, y float64) {
	if e == e.doc.root || e.position == PositionFixed {
		return 0, 0
	}
	cb := e.ContainingBlock()
	if cb == nil {
		return 0, 0
	}
	origin := cb.BoundingRect()
	x, y = origin.X, origin.Y

	// The containing block's own scroll offset counts too.
	for cur := e.parent; cur != nil; cur = cur.parent {
		if cur.scrollable {
			x -= cur.scrollX
			y -= cur.scrollY
		}
		if cur == cb {
			break
		}
	}
	return x, y
}
