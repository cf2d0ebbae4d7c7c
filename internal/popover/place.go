package popover

import (
	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/flip"
	"github.com/jmylchreest/popanchor/internal/geometry"
)

// App bar side classes.
const (
	barTop    = "top"
	barBottom = "bottom"
)

// Place runs a placement pass for the popover registered as id.
func (r *Registry) Place(id string) {
	reg, ok := r.entries[id]
	if !ok {
		r.logger.Debug("place: popover not connected", "id", id)
		return
	}
	r.place(reg)
}

func (r *Registry) place(reg *registration) {
	el := reg.element
	if !el.Connected() {
		r.logger.Debug("place: popover detached", "id", reg.id)
		return
	}

	classes := el.Classes()
	flags := geometry.ParseFlags(classes)
	if !flags.Open {
		return
	}
	if reg.block == nil {
		r.logger.Debug("place: no containing block", "id", reg.id)
		return
	}

	blockRect := reg.block.BoundingRect()
	anchorRect, offsetLeft, offsetTop, anchored := r.resolveAnchor(reg, blockRect)

	// Width styles resize the popover, which may run a nested pass through
	// the self resize observer before this one continues.
	if flags.MatchWidth {
		w := dom.FormatPx(anchorRect.Width, r.opts.Precision)
		el.SetStyle(dom.StyleWidth, w)
		el.SetStyle(dom.StyleMinWidth, w)
		el.SetStyle(dom.StyleMaxWidth, w)
	}
	if flags.LimitWidth {
		el.SetStyle(dom.StyleMaxWidth, dom.FormatPx(anchorRect.Width, r.opts.Precision))
	}

	size := el.Size()
	copts := geometry.ComputeOptions{LegacyDefaultAnchor: r.opts.LegacyDefaultAnchor}
	compute := func(p geometry.Placement) geometry.Position {
		return geometry.Compute(p, anchorRect, offsetLeft, offsetTop, size, copts)
	}

	placement := geometry.ParsePlacement(classes)
	pos := compute(placement)

	dir := flip.None
	if flags.Flippable() {
		dir = r.resolveFlip(reg, flags, placement, func(p geometry.Placement) geometry.Rect {
			return geometry.Locate(compute(p), size, blockRect.X+reg.deltaX, blockRect.Y+reg.deltaY)
		})
		if dir != flip.None {
			placement = flip.Apply(placement, dir)
			pos = compute(placement)
		}
	}
	r.markFlip(el, dir)

	baseX := blockRect.X + pos.X()
	baseY := blockRect.Y + pos.Y()
	if reg.pending != nil {
		req := *reg.pending
		reg.pending = nil
		r.resolveOffset(reg, blockRect, baseX, baseY, req)
	}

	reg.placed = true
	reg.passes++
	reg.placement = placement
	reg.direction = dir
	reg.anchored = anchored
	reg.left = baseX + reg.deltaX
	reg.top = baseY + reg.deltaY

	if r.write(reg) {
		r.logger.Debug("popover placed", "id", reg.id, "left", reg.left, "top", reg.top, "flip", dir)
	}
}

// resolveAnchor returns the anchor rectangle and its offset from the block.
// A missing anchor, or one in another containing block, falls back to the
// block itself.
func (r *Registry) resolveAnchor(reg *registration, blockRect geometry.Rect) (geometry.Rect, float64, float64, bool) {
	if reg.anchorID == "" {
		return blockRect, 0, 0, false
	}
	anchor := r.doc.ElementByID(reg.anchorID)
	if anchor == nil {
		r.logger.Debug("anchor not found, using containing block", "id", reg.id, "anchor", reg.anchorID)
		return blockRect, 0, 0, false
	}
	if anchor.ContainingBlock() != reg.block {
		r.logger.Debug("anchor has a different containing block, using containing block", "id", reg.id, "anchor", reg.anchorID)
		return blockRect, 0, 0, false
	}
	ar := anchor.BoundingRect()
	return ar, ar.X - blockRect.X, ar.Y - blockRect.Y, true
}

func (r *Registry) resolveFlip(reg *registration, flags geometry.Flags, p geometry.Placement, locate flip.Locator) flip.Direction {
	cacheable := flags.FlipOnOpen && !flags.FlipAlways
	if cacheable && reg.flipCache != nil {
		return *reg.flipCache
	}

	w, h := r.doc.WindowSize()
	bounds := flip.Viewport(w, h, r.barHeight(barTop), r.barHeight(barBottom))
	d := flip.Resolve(p, bounds, locate)
	if cacheable {
		reg.flipCache = &d
	}
	return d
}

// barHeight sums the heights of the app bars on one side of the window.
func (r *Registry) barHeight(side string) float64 {
	var total float64
	for _, bar := range r.doc.QueryClass(r.opts.AppBarClass, side) {
		total += bar.BoundingRect().Height
	}
	return total
}

func (r *Registry) markFlip(el *dom.Element, d flip.Direction) {
	if d == flip.None {
		el.RemoveAttr(r.opts.FlipAttribute)
		return
	}
	el.SetAttr(r.opts.FlipAttribute, d.String())
}

// write sets left and top unless both already hold the formatted values.
// reg.left and reg.top are window coordinates; the styles are written relative
// to whatever the element's positioning mode measures them from.
func (r *Registry) write(reg *registration) bool {
	el := reg.element
	ox, oy := el.OffsetOrigin()
	left := dom.FormatPx(reg.left-ox, r.opts.Precision)
	top := dom.FormatPx(reg.top-oy, r.opts.Precision)
	if el.Style(dom.StyleLeft) == left && el.Style(dom.StyleTop) == top {
		return false
	}
	el.SetStyle(dom.StyleLeft, left)
	el.SetStyle(dom.StyleTop, top)
	return true
}

// SetOffset moves the popover registered as id so that its top-left corner
// sits at (x, y) relative to its containing block. A nil coordinate removes
// the manual offset on that axis. The offset is kept across later passes.
// Offsets for a popover that has not been placed yet apply at its first pass.
func (r *Registry) SetOffset(id string, x, y *float64) {
	reg, ok := r.entries[id]
	if !ok {
		r.logger.Debug("set offset: popover not connected", "id", id)
		return
	}
	req := offsetRequest{x: x, y: y}
	if !reg.placed || reg.block == nil {
		reg.pending = &req
		return
	}

	baseX := reg.left - reg.deltaX
	baseY := reg.top - reg.deltaY
	r.resolveOffset(reg, reg.block.BoundingRect(), baseX, baseY, req)
	reg.left = baseX + reg.deltaX
	reg.top = baseY + reg.deltaY
	r.write(reg)
}

func (r *Registry) resolveOffset(reg *registration, blockRect geometry.Rect, baseX, baseY float64, req offsetRequest) {
	reg.deltaX, reg.deltaY = 0, 0
	if req.x != nil {
		reg.deltaX = blockRect.X + *req.x - baseX
	}
	if req.y != nil {
		reg.deltaY = blockRect.Y + *req.y - baseY
	}
}
