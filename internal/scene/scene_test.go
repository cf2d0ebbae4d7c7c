package scene

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/popover"
)

const menuScene = `
window: {width: 800, height: 600}
elements:
  - id: main
    position: relative
    frame: [0, 0, 800, 600]
    scrollable: true
    children:
      - id: button
        frame: [100, 50, 40, 20]
      - id: popover-menu
        position: fixed
        class: open top-right anchor-bottom-right
        size: [30, 10]
      - size: [10, 10]
        class: [spacer]
popovers:
  - {id: menu, anchor: button}
steps:
  - {action: set-offset, target: menu, offset: [10, 20]}
  - {action: clear-offset, target: menu}
  - {action: set-frame, target: button, frame: [200, 50, 40, 20]}
  - {action: place, target: menu}
  - {action: add-class, target: popover-menu, class: flip-always}
  - {action: scroll, target: main, to: [0, 30], note: scroll main}
  - {action: disconnect, target: menu}
`

func parse(t *testing.T, src string) *Scene {
	t.Helper()
	s, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s := parse(t, menuScene)

	assert.Equal(t, Window{Width: 800, Height: 600}, s.Window)
	require.Len(t, s.Elements, 1)
	main := s.Elements[0]
	assert.Equal(t, "relative", main.Position)
	assert.True(t, main.Scrollable)
	require.Len(t, main.Children, 3)
	assert.Equal(t, Classes{"open", "top-right", "anchor-bottom-right"}, main.Children[1].Class)
	assert.Equal(t, Classes{"spacer"}, main.Children[2].Class)

	require.Len(t, s.Popovers, 1)
	assert.Equal(t, PopoverSpec{ID: "menu", Anchor: "button"}, s.Popovers[0])

	require.Len(t, s.Steps, 7)
	require.Len(t, s.Steps[0].Offset, 2)
	assert.Equal(t, 10.0, *s.Steps[0].Offset[0])
	assert.Equal(t, "set-offset menu", s.Steps[0].Label())
	assert.Equal(t, "scroll main", s.Steps[5].Label())
}

func TestParse_NullOffsetAxis(t *testing.T) {
	s := parse(t, `
window: {width: 100, height: 100}
steps:
  - {action: set-offset, target: menu, offset: [null, 5]}
`)
	require.Len(t, s.Steps[0].Offset, 2)
	assert.Nil(t, s.Steps[0].Offset[0])
	assert.Equal(t, 5.0, *s.Steps[0].Offset[1])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", ``, ErrNoWindow},
		{"no window", "elements: []\n", ErrNoWindow},
		{"bad frame", "window: {width: 1, height: 1}\nelements:\n  - {id: a, frame: [1, 2]}\n", ErrInvalidFrame},
		{"bad size", "window: {width: 1, height: 1}\nelements:\n  - {id: a, size: [1]}\n", ErrInvalidSize},
		{"duplicate id", "window: {width: 1, height: 1}\nelements:\n  - {id: a}\n  - {id: b, children: [{id: a}]}\n", ErrDuplicateID},
		{"unknown action", "window: {width: 1, height: 1}\nsteps:\n  - {action: explode}\n", ErrUnknownAction},
		{"missing target", "window: {width: 1, height: 1}\nsteps:\n  - {action: add-class, class: open}\n", ErrMissingTarget},
		{"missing class", "window: {width: 1, height: 1}\nsteps:\n  - {action: add-class, target: a}\n", ErrMissingClass},
		{"bad resize", "window: {width: 1, height: 1}\nsteps:\n  - {action: resize-window, size: [0, 10]}\n", ErrNoWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_StepErrorCarriesIndex(t *testing.T) {
	_, err := Parse(strings.NewReader("window: {width: 1, height: 1}\nsteps:\n  - {action: place, target: a}\n  - {action: explode}\n"))
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "explode", stepErr.Action)
	assert.Contains(t, err.Error(), "step 2 (explode)")
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("window: {width: 1, height: 1}\nbogus: true\n"))
	assert.Error(t, err)
}

func TestParse_RejectsBadClassType(t *testing.T) {
	_, err := Parse(strings.NewReader("window: {width: 1, height: 1}\nelements:\n  - {id: a, class: {open: true}}\n"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	s := parse(t, menuScene)

	doc, err := s.Build(nil)
	require.NoError(t, err)

	w, h := doc.WindowSize()
	assert.Equal(t, 800.0, w)
	assert.Equal(t, 600.0, h)

	main := doc.ElementByID("main")
	require.NotNil(t, main)
	assert.Equal(t, dom.PositionRelative, main.Position())
	assert.True(t, main.Scrollable())

	pop := doc.ElementByID("popover-menu")
	require.NotNil(t, pop)
	assert.Equal(t, dom.PositionFixed, pop.Position())
	assert.Equal(t, 30.0, pop.Size().Width)
	assert.Same(t, main, pop.ContainingBlock())

	children := main.Children()
	require.Len(t, children, 3)
	generated := children[2].ID()
	assert.True(t, strings.HasPrefix(generated, "el-"), generated)
	assert.Len(t, generated, len("el-")+26)
	assert.Same(t, children[2], doc.ElementByID(generated))
}

func TestBuild_InvalidPosition(t *testing.T) {
	s := &Scene{
		Window:   Window{Width: 10, Height: 10},
		Elements: []ElementSpec{{ID: "a", Position: "sticky"}},
	}
	_, err := s.Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sticky")
}

func TestBuild_InitialScrollAndStyles(t *testing.T) {
	s := parse(t, `
window: {width: 100, height: 100}
elements:
  - id: list
    position: relative
    scrollable: true
    scroll: [0, 15]
    attrs: {role: listbox}
    style: {width: 50px}
    frame: [0, 0, 80, 80]
`)
	doc, err := s.Build(nil)
	require.NoError(t, err)

	list := doc.ElementByID("list")
	_, y := list.ScrollOffset()
	assert.Equal(t, 15.0, y)
	role, _ := list.Attr("role")
	assert.Equal(t, "listbox", role)
	assert.Equal(t, 50.0, list.Size().Width)
}

func TestRun(t *testing.T) {
	s := parse(t, menuScene)
	doc, err := s.Build(nil)
	require.NoError(t, err)

	reg := popover.NewRegistry(doc, popover.DefaultOptions(), nil)
	require.NoError(t, s.Connect(reg))

	pop := doc.ElementByID("popover-menu")
	type pos struct{ left, top string }
	var got []pos
	var labels []string
	err = s.Run(doc, reg, func(i int, st Step) {
		got = append(got, pos{pop.Style(dom.StyleLeft), pop.Style(dom.StyleTop)})
		labels = append(labels, st.Label())
	})
	require.NoError(t, err)

	assert.Equal(t, []pos{
		{"10.00px", "20.00px"},
		{"110.00px", "70.00px"},
		{"110.00px", "70.00px"}, // moving the anchor alone does not re-place
		{"210.00px", "70.00px"},
		{"210.00px", "70.00px"},
		{"210.00px", "40.00px"}, // flip-always follows the scroll
		{"210.00px", "40.00px"},
	}, got)
	assert.Equal(t, "disconnect menu", labels[6])
	assert.Equal(t, 0, reg.Len())
}

func TestApply_UnknownTargets(t *testing.T) {
	s := parse(t, `
window: {width: 100, height: 100}
steps:
  - {action: add-class, target: ghost, class: open}
  - {action: place, target: ghost}
  - {action: connect, target: ghost}
`)
	doc, err := s.Build(nil)
	require.NoError(t, err)
	reg := popover.NewRegistry(doc, popover.DefaultOptions(), nil)

	for i := range s.Steps {
		err := s.Apply(doc, reg, i)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownTarget)

		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, i, stepErr.Index)
	}

	err = s.Run(doc, reg, nil)
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestApply_ConnectAndToggle(t *testing.T) {
	s := parse(t, `
window: {width: 200, height: 200}
elements:
  - id: anchor
    frame: [10, 10, 20, 20]
  - id: popover-tip
    position: fixed
    size: [10, 10]
    class: top-left anchor-bottom-left
steps:
  - {action: connect, target: tip, anchor: anchor}
  - {action: toggle-class, target: popover-tip, class: open}
  - {action: resize-window, size: [300, 300]}
`)
	doc, err := s.Build(nil)
	require.NoError(t, err)
	reg := popover.NewRegistry(doc, popover.DefaultOptions(), nil)

	require.NoError(t, s.Run(doc, reg, nil))
	assert.True(t, reg.Connected("tip"))

	pop := doc.ElementByID("popover-tip")
	assert.Equal(t, "10.00px", pop.Style(dom.StyleLeft))
	assert.Equal(t, "30.00px", pop.Style(dom.StyleTop))

	w, _ := doc.WindowSize()
	assert.Equal(t, 300.0, w)
}

func TestConnect_MissingPopover(t *testing.T) {
	s := parse(t, `
window: {width: 100, height: 100}
popovers:
  - {id: ghost}
  - {id: phantom}
`)
	doc, err := s.Build(nil)
	require.NoError(t, err)

	err = s.Connect(popover.NewRegistry(doc, popover.DefaultOptions(), nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "phantom")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(menuScene), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 7)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("elements: []\n"), 0644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrNoWindow)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestSession(t *testing.T) {
	s := parse(t, menuScene)

	sess, err := s.Mount(popover.DefaultOptions(), 4, nil)
	require.NoError(t, err)
	require.NoError(t, sess.ConnectErr)
	assert.Equal(t, 1, sess.Registry.Len())

	pop := sess.Doc.ElementByID("popover-menu")
	assert.Equal(t, "110.00px", pop.Style(dom.StyleLeft))

	st, err := sess.Step()
	require.NoError(t, err)
	assert.Equal(t, ActionSetOffset, st.Action)
	assert.Equal(t, "10.00px", pop.Style(dom.StyleLeft))
	assert.Equal(t, 1, sess.Next())

	for !sess.Done() {
		_, err := sess.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, 0, sess.Registry.Len())

	st, err = sess.Step()
	assert.NoError(t, err)
	assert.Empty(t, st.Action)

	sess.Close()
	assert.Equal(t, 0, sess.Doc.ObserverCount())
}

func TestSession_ConnectErrors(t *testing.T) {
	s := parse(t, `
window: {width: 100, height: 100}
popovers:
  - {id: ghost}
steps:
  - {action: place, target: ghost}
  - {action: resize-window, size: [50, 50]}
`)
	sess, err := s.Mount(popover.DefaultOptions(), 0, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, sess.ConnectErr, ErrUnknownTarget)

	_, err = sess.Step()
	assert.ErrorIs(t, err, ErrUnknownTarget)

	// A failed step does not block the following ones.
	_, err = sess.Step()
	require.NoError(t, err)
	w, _ := sess.Doc.WindowSize()
	assert.Equal(t, 50.0, w)
}
