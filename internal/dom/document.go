package dom

import (
	"log/slog"

	"github.com/jmylchreest/popanchor/internal/geometry"
)

// DefaultResizeLoopLimit bounds the number of resize notification rounds
// delivered for a single mutation.
const DefaultResizeLoopLimit = 16

// Document is the root of an element tree plus the window it is displayed in.
type Document struct {
	root   *Element
	byID   map[string]*Element
	width  float64
	height float64
	logger *slog.Logger

	classObservers  map[*Element]*hub[ClassCallback]
	scrollListeners map[*Element]*hub[ScrollCallback]
	resizeObservers hub[*resizeTarget]
	windowListeners hub[WindowCallback]

	resizeLoopLimit int
	flushing        bool
	pending         bool
}

// NewDocument creates an empty document with a window of the given size. The
// root element spans the window and is the outermost containing block.
func NewDocument(width, height float64, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Document{
		byID:            make(map[string]*Element),
		width:           width,
		height:          height,
		logger:          logger,
		classObservers:  make(map[*Element]*hub[ClassCallback]),
		scrollListeners: make(map[*Element]*hub[ScrollCallback]),
		resizeLoopLimit: DefaultResizeLoopLimit,
	}
	d.root = &Element{
		doc:      d,
		position: PositionRelative,
		frame:    geometry.Rect{Width: width, Height: height},
		attrs:    make(map[string]string),
		style:    make(map[string]string),
	}
	return d
}

// Root returns the document's root element.
func (d *Document) Root() *Element {
	return d.root
}

// SetResizeLoopLimit changes the maximum number of resize rounds per mutation.
func (d *Document) SetResizeLoopLimit(limit int) {
	if limit < 1 {
		limit = 1
	}
	d.resizeLoopLimit = limit
}

// CreateElement creates a detached element. An empty id is allowed; ids that
// are already taken replace the earlier lookup entry.
func (d *Document) CreateElement(id string) *Element {
	e := &Element{
		doc:      d,
		id:       id,
		position: PositionStatic,
		attrs:    make(map[string]string),
		style:    make(map[string]string),
	}
	if id != "" {
		d.byID[id] = e
	}
	return e
}

// ElementByID returns the connected element with the given id, or nil.
func (d *Document) ElementByID(id string) *Element {
	e, ok := d.byID[id]
	if !ok || !e.Connected() {
		return nil
	}
	return e
}

// QueryClass returns connected elements carrying every given class, in tree order.
func (d *Document) QueryClass(classes ...string) []*Element {
	var out []*Element
	d.root.walk(func(e *Element) {
		if e == d.root {
			return
		}
		for _, c := range classes {
			if !e.HasClass(c) {
				return
			}
		}
		out = append(out, e)
	})
	return out
}

// WindowSize returns the inner window size.
func (d *Document) WindowSize() (width, height float64) {
	return d.width, d.height
}

// SetWindowSize resizes the window and the root element, then notifies window
// listeners and resize observers.
func (d *Document) SetWindowSize(width, height float64) {
	if width == d.width && height == d.height {
		return
	}
	d.width, d.height = width, height
	d.root.frame.Width, d.root.frame.Height = width, height

	d.logger.Debug("window resized", "width", width, "height", height)

	d.windowListeners.each(func(fn WindowCallback) { fn(width, height) })
	d.flushResize()
}
