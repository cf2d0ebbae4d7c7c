package preview

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/popanchor/internal/geometry"
)

type cellKind uint8

const (
	kindEmpty cellKind = iota
	kindElement
	kindPopover
	kindSelected
)

// canvas is a grid of terminal cells onto which element rectangles are drawn.
type canvas struct {
	cols, rows int
	cellW      float64
	cellH      float64
	runes      [][]rune
	kinds      [][]cellKind
}

func newCanvas(cols, rows, cellW, cellH int) *canvas {
	c := &canvas{cols: cols, rows: rows, cellW: float64(cellW), cellH: float64(cellH)}
	c.runes = make([][]rune, rows)
	c.kinds = make([][]cellKind, rows)
	for r := range rows {
		c.runes[r] = []rune(strings.Repeat(" ", cols))
		c.kinds[r] = make([]cellKind, cols)
	}
	return c
}

func (c *canvas) set(col, row int, ch rune, kind cellKind) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.runes[row][col] = ch
	c.kinds[row][col] = kind
}

// cells converts a pixel rectangle to an inclusive cell range.
func (c *canvas) cells(r geometry.Rect) (c0, r0, c1, r1 int) {
	c0 = int(math.Floor(r.X / c.cellW))
	r0 = int(math.Floor(r.Y / c.cellH))
	c1 = int(math.Ceil(r.Right()/c.cellW)) - 1
	r1 = int(math.Ceil(r.Bottom()/c.cellH)) - 1
	c1 = max(c1, c0)
	r1 = max(r1, r0)
	return c0, r0, c1, r1
}

// box draws the outline of r with label on its top edge. Rectangles too small
// for an outline are filled solid. Filled boxes clear whatever lies beneath.
// Only cells on the canvas are visited.
func (c *canvas) box(r geometry.Rect, label string, kind cellKind, fill bool) {
	c0, r0, c1, r1 := c.cells(r)
	if c1 < 0 || r1 < 0 || c0 >= c.cols || r0 >= c.rows {
		return
	}

	// Visible range, inclusive.
	vc0, vc1 := max(c0, 0), min(c1, c.cols-1)
	vr0, vr1 := max(r0, 0), min(r1, c.rows-1)

	if c1-c0 < 1 || r1-r0 < 1 {
		c.fill(vc0, vr0, vc1, vr1, '█', kind)
		return
	}

	if fill {
		c.fill(max(c0+1, 0), max(r0+1, 0), min(c1-1, c.cols-1), min(r1-1, c.rows-1), ' ', kind)
	}
	for col := max(c0+1, 0); col <= min(c1-1, c.cols-1); col++ {
		c.set(col, r0, '─', kind)
		c.set(col, r1, '─', kind)
	}
	for row := max(r0+1, 0); row <= min(r1-1, c.rows-1); row++ {
		c.set(c0, row, '│', kind)
		c.set(c1, row, '│', kind)
	}
	c.set(c0, r0, '┌', kind)
	c.set(c1, r0, '┐', kind)
	c.set(c0, r1, '└', kind)
	c.set(c1, r1, '┘', kind)

	if r0 < 0 {
		return
	}
	room := c1 - c0 - 1
	for i, ch := range []rune(label) {
		col := c0 + 1 + i
		if i >= room || col > vc1 {
			break
		}
		c.set(col, r0, ch, kind)
	}
}

// fill sets every cell in the inclusive range, which must lie on the canvas.
func (c *canvas) fill(c0, r0, c1, r1 int, ch rune, kind cellKind) {
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			c.set(col, row, ch, kind)
		}
	}
}

// render joins rows, styling each run of cells of the same kind.
func (c *canvas) render(styles map[cellKind]lipgloss.Style) string {
	lines := make([]string, c.rows)
	for r := range c.rows {
		var sb strings.Builder
		start := 0
		for col := 1; col <= c.cols; col++ {
			if col < c.cols && c.kinds[r][col] == c.kinds[r][start] {
				continue
			}
			run := string(c.runes[r][start:col])
			if st, ok := styles[c.kinds[r][start]]; ok {
				run = st.Render(run)
			}
			sb.WriteString(run)
			start = col
		}
		lines[r] = sb.String()
	}
	return strings.Join(lines, "\n")
}
