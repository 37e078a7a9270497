package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/view"
)

// cellAspect is the height of a terminal cell in units of its width.
const cellAspect = 2.0

// projection maps model coordinates onto terminal cells.
type projection struct {
	minX, minY float64
	unit       float64 // model units per column
	offCol     float64
	offRow     float64
}

// fit returns a projection that shows every node inside a cols x rows area,
// keeping the aspect ratio of the model.
func fit(nodes []graph.Node, style view.Style, cols, rows int) projection {
	if len(nodes) == 0 || cols < 2 || rows < 2 {
		return projection{unit: 1}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		r := style.RadiusFor(n)
		minX = math.Min(minX, n.X-r)
		minY = math.Min(minY, n.Y-r)
		maxX = math.Max(maxX, n.X+r)
		maxY = math.Max(maxY, n.Y+r)
	}
	spanX := maxX - minX
	spanY := maxY - minY

	// Leave room for labels to the right of the rightmost node.
	usableCols := float64(cols-1) * 0.8
	unit := math.Max(spanX/usableCols, spanY/(cellAspect*float64(rows-1)))
	if unit <= 0 {
		unit = 1
	}
	return projection{
		minX:   minX,
		minY:   minY,
		unit:   unit,
		offCol: (usableCols - spanX/unit) / 2,
		offRow: (float64(rows-1) - spanY/(cellAspect*unit)) / 2,
	}
}

func (p projection) toCell(x, y float64) (int, int) {
	col := (x-p.minX)/p.unit + p.offCol
	row := (y-p.minY)/(cellAspect*p.unit) + p.offRow
	return int(math.Round(col)), int(math.Round(row))
}

func (p projection) toModel(col, row int) (float64, float64) {
	x := p.minX + (float64(col)-p.offCol)*p.unit
	y := p.minY + (float64(row)-p.offRow)*cellAspect*p.unit
	return x, y
}

// Cell style keys.
const (
	styleNone  = ""
	styleEdge  = "edge"
	styleLabel = "label"
	styleFocus = "focus"
)

// canvas is a grid of runes, each tagged with a style key.
type canvas struct {
	cols, rows int
	runes      []rune
	styles     []string
}

func newCanvas(cols, rows int) *canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	c := &canvas{
		cols:   cols,
		rows:   rows,
		runes:  make([]rune, cols*rows),
		styles: make([]string, cols*rows),
	}
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

func (c *canvas) set(col, row int, r rune, style string) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.runes[row*c.cols+col] = r
	c.styles[row*c.cols+col] = style
}

func (c *canvas) at(col, row int) rune {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return 0
	}
	return c.runes[row*c.cols+col]
}

// line draws a Bresenham line, leaving the endpoints to the nodes.
func (c *canvas) line(x0, y0, x1, y1 int, style string) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	x, y := x0, y0
	for {
		if (x != x0 || y != y0) && (x != x1 || y != y1) {
			c.set(x, y, '·', style)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func (c *canvas) text(col, row int, s, style string) {
	for _, r := range s {
		c.set(col, row, r, style)
		col++
	}
}

// render joins the grid into lines, styling each run of equally tagged
// cells once.
func (c *canvas) render(styles map[string]lipgloss.Style) string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		start := row * c.cols
		end := start + c.cols
		for i := start; i < end; {
			j := i
			for j < end && c.styles[j] == c.styles[i] {
				j++
			}
			run := string(c.runes[i:j])
			if st, ok := styles[c.styles[i]]; ok && c.styles[i] != styleNone {
				run = st.Render(run)
			}
			b.WriteString(run)
			i = j
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// glyph returns the rune drawn for a node.
func glyph(n graph.Node) rune {
	switch n.Kind {
	case graph.KindRoot:
		return '◆'
	case graph.KindCategory:
		return '■'
	default:
		return '●'
	}
}

// nodeStyleKey is the style key of a node glyph.
func nodeStyleKey(n graph.Node) string {
	if n.Kind == graph.KindSkill {
		return "level:" + string(n.Level)
	}
	return "kind:" + string(n.Kind)
}

// draw projects nodes and edges onto a new canvas. Edges go first, then
// labels, then glyphs, so nodes stay visible where things overlap.
func draw(nodes []graph.Node, edges []graph.Edge, p projection, cols, rows int, focus string) *canvas {
	c := newCanvas(cols, rows)
	pos := make(map[string][2]int, len(nodes))
	for _, n := range nodes {
		col, row := p.toCell(n.X, n.Y)
		pos[n.ID] = [2]int{col, row}
	}
	for _, e := range edges {
		s, ok1 := pos[e.SourceID]
		t, ok2 := pos[e.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		c.line(s[0], s[1], t[0], t[1], styleEdge)
	}
	for _, n := range nodes {
		at := pos[n.ID]
		style := styleLabel
		if n.ID == focus {
			style = styleFocus
		}
		c.text(at[0]+2, at[1], n.Label, style)
	}
	for _, n := range nodes {
		at := pos[n.ID]
		key := nodeStyleKey(n)
		if n.ID == focus {
			key = styleFocus
		}
		c.set(at[0], at[1], glyph(n), key)
	}
	return c
}
