package popover

import (
	"log/slog"
	"slices"

	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/flip"
	"github.com/jmylchreest/popanchor/internal/geometry"
)

// registration is the per-popover side table.
type registration struct {
	id       string
	anchorID string
	element  *dom.Element
	block    *dom.Element

	classObs *dom.Subscription
	blockObs *dom.Subscription
	selfObs  *dom.Subscription

	// flipCache holds the direction chosen while a flip-onopen popover is open.
	flipCache *flip.Direction

	// deltaX and deltaY are the manual offset added after every pass.
	deltaX, deltaY float64
	pending        *offsetRequest

	placed    bool
	passes    int
	left, top float64
	placement geometry.Placement
	direction flip.Direction
	anchored  bool
}

type offsetRequest struct {
	x, y *float64
}

// Registry tracks the connected popovers of one document.
type Registry struct {
	doc    *dom.Document
	opts   Options
	logger *slog.Logger

	entries map[string]*registration
	order   []string

	scrolls     map[*dom.Element]*dom.Subscription
	container   *dom.Subscription
	containerEl *dom.Element
	window      *dom.Subscription
	initialized bool
}

// NewRegistry creates a registry for doc.
func NewRegistry(doc *dom.Document, opts Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		doc:     doc,
		opts:    opts,
		logger:  logger,
		entries: make(map[string]*registration),
		scrolls: make(map[*dom.Element]*dom.Subscription),
	}
}

// Document returns the document the registry works on.
func (r *Registry) Document() *dom.Document { return r.doc }

// Options returns the current options.
func (r *Registry) Options() Options { return r.opts }

// Initialize installs the document-wide listeners: a window resize listener
// and a resize observer on the main container. Calling it again is a no-op.
func (r *Registry) Initialize() {
	if r.initialized {
		return
	}
	r.initialized = true

	main := r.mainContainer()
	main.SetAttr(r.opts.ContainerAttribute, "")
	r.containerEl = main
	r.container = r.doc.ObserveResize(main, func(*dom.Element) {
		r.logger.Debug("main container resized")
		r.PlaceAll()
	})
	r.window = r.doc.ListenWindowResize(func(width, height float64) {
		r.logger.Debug("window resized, re-placing popovers", "width", width, "height", height, "count", len(r.entries))
		r.PlaceAll()
	})
}

func (r *Registry) mainContainer() *dom.Element {
	if el := r.doc.ElementByID(r.opts.MainContainer); el != nil {
		return el
	}
	return r.doc.Root()
}

// Connect registers the element "<prefix><id>" as a popover anchored to the
// element anchorID (empty for none), places it once and starts observing it.
// It reports whether a registration was made. Connecting an id that is
// already registered replaces the earlier registration.
func (r *Registry) Connect(id, anchorID string) bool {
	r.Initialize()

	el := r.doc.ElementByID(r.opts.ElementID(id))
	if el == nil {
		r.logger.Warn("popover element not found", "id", id, "element", r.opts.ElementID(id))
		return false
	}

	if prev, ok := r.entries[id]; ok {
		r.logger.Warn("popover already connected, replacing registration", "id", id)
		r.disconnect(prev)
	}

	reg := &registration{
		id:       id,
		anchorID: anchorID,
		element:  el,
		block:    el.ContainingBlock(),
	}
	r.entries[id] = reg
	r.order = append(r.order, id)

	r.place(reg)

	reg.classObs = r.doc.ObserveClass(el, func(_ *dom.Element, old []string) {
		r.classChanged(reg, old)
	})
	if reg.block != nil {
		block := reg.block
		reg.blockObs = r.doc.ObserveResize(block, func(*dom.Element) {
			r.placeInBlock(block)
		})
	}
	reg.selfObs = r.doc.ObserveResize(el, func(*dom.Element) {
		r.place(reg)
	})
	r.listenScroll(el)

	r.logger.Debug("popover connected", "id", id, "anchor", anchorID)
	return true
}

// listenScroll adds a scroll listener to the first scrollable positioned
// ancestor of el that has none yet.
func (r *Registry) listenScroll(el *dom.Element) {
	for cur := el.Parent(); cur != nil; cur = cur.Parent() {
		if !cur.Scrollable() || !cur.Positioned() {
			continue
		}
		if _, ok := r.scrolls[cur]; ok {
			continue
		}
		r.scrolls[cur] = r.doc.ListenScroll(cur, func(*dom.Element) {
			r.placeFlipAlways()
		})
		r.logger.Debug("listening for scroll", "element", cur.ID())
		return
	}
}

func (r *Registry) classChanged(reg *registration, old []string) {
	flags := geometry.ParseFlags(reg.element.Classes())
	wasOpen := slices.Contains(old, geometry.ClassOpen)
	if wasOpen && !flags.Open && reg.flipCache != nil {
		r.logger.Debug("popover closed, clearing flip cache", "id", reg.id)
		reg.flipCache = nil
	}
	r.place(reg)
}

// Disconnect stops observing the popover registered as id.
func (r *Registry) Disconnect(id string) {
	reg, ok := r.entries[id]
	if !ok {
		return
	}
	r.disconnect(reg)
	r.logger.Debug("popover disconnected", "id", id)
}

func (r *Registry) disconnect(reg *registration) {
	reg.classObs.Disconnect()
	reg.blockObs.Disconnect()
	reg.selfObs.Disconnect()
	delete(r.entries, reg.id)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == reg.id })
}

// Dispose disconnects every registration and the document-wide listeners.
// The registry can be initialized again afterwards.
func (r *Registry) Dispose() {
	for _, id := range slices.Clone(r.order) {
		r.disconnect(r.entries[id])
	}
	for el, sub := range r.scrolls {
		sub.Disconnect()
		delete(r.scrolls, el)
	}
	r.container.Disconnect()
	r.window.Disconnect()
	r.container, r.window = nil, nil
	if r.containerEl != nil {
		r.containerEl.RemoveAttr(r.opts.ContainerAttribute)
		r.containerEl = nil
	}
	r.initialized = false
}

// UpdateOptions replaces the options and re-places every popover. A changed
// id prefix only affects later Connect calls.
func (r *Registry) UpdateOptions(opts Options) {
	if r.containerEl != nil && opts.ContainerAttribute != r.opts.ContainerAttribute {
		r.containerEl.RemoveAttr(r.opts.ContainerAttribute)
		r.containerEl.SetAttr(opts.ContainerAttribute, "")
	}
	if opts.FlipAttribute != r.opts.FlipAttribute {
		r.each(func(reg *registration) {
			reg.element.RemoveAttr(r.opts.FlipAttribute)
		})
	}
	r.opts = opts
	r.logger.Info("placement options updated", "precision", opts.Precision, "legacy_default_anchor", opts.LegacyDefaultAnchor)
	r.PlaceAll()
}

// Len returns the number of registrations.
func (r *Registry) Len() int { return len(r.entries) }

// IDs returns the registered ids in connection order.
func (r *Registry) IDs() []string { return slices.Clone(r.order) }

// Connected reports whether id is registered.
func (r *Registry) Connected(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// each calls fn for every registration in connection order. Registrations
// removed by an earlier call are skipped.
func (r *Registry) each(fn func(*registration)) {
	for _, id := range slices.Clone(r.order) {
		if reg, ok := r.entries[id]; ok {
			fn(reg)
		}
	}
}

// PlaceAll runs a placement pass for every registration.
func (r *Registry) PlaceAll() {
	r.each(r.place)
}

func (r *Registry) placeInBlock(block *dom.Element) {
	r.each(func(reg *registration) {
		if reg.block == block {
			r.place(reg)
		}
	})
}

func (r *Registry) placeFlipAlways() {
	r.each(func(reg *registration) {
		if reg.element.HasClass(geometry.ClassFlipAlways) {
			r.place(reg)
		}
	})
}
