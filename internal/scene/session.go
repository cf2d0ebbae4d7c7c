package scene

import (
	"log/slog"

	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/popover"
)

// Session is a built scene with its popovers connected, stepping through
// the scene's steps one at a time.
type Session struct {
	Scene    *Scene
	Doc      *dom.Document
	Registry *popover.Registry

	// ConnectErr holds the popovers that could not be connected.
	ConnectErr error

	next int
}

// Mount builds the document, creates a registry with opts and connects the
// scene's popovers. Only build failures are returned as errors.
func (s *Scene) Mount(opts popover.Options, resizeLoopLimit int, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := s.Build(logger)
	if err != nil {
		return nil, err
	}
	if resizeLoopLimit > 0 {
		doc.SetResizeLoopLimit(resizeLoopLimit)
	}

	reg := popover.NewRegistry(doc, opts, logger)
	sess := &Session{Scene: s, Doc: doc, Registry: reg}
	if err := s.Connect(reg); err != nil {
		logger.Warn("some popovers could not be connected", "error", err)
		sess.ConnectErr = err
	}
	return sess, nil
}

// Next returns the index of the next step to apply.
func (ss *Session) Next() int { return ss.next }

// Done reports whether every step has been applied.
func (ss *Session) Done() bool { return ss.next >= len(ss.Scene.Steps) }

// Step applies the next step. A failed step is skipped so later calls move on.
func (ss *Session) Step() (Step, error) {
	if ss.Done() {
		return Step{}, nil
	}
	i := ss.next
	ss.next++
	return ss.Scene.Steps[i], ss.Scene.Apply(ss.Doc, ss.Registry, i)
}

// Close disposes the registry.
func (ss *Session) Close() {
	ss.Registry.Dispose()
}
