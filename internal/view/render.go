package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/skill"
)

// compiledSVG and compiledPage are parsed at init time to fail fast on
// template errors.
var (
	compiledSVG  *template.Template
	compiledPage *template.Template
)

func init() {
	compiledSVG = template.Must(template.New("svg").Parse(svgTemplate))
	compiledPage = template.Must(template.New("page").Parse(pageTemplate))
}

// SVGOptions configures SVG rendering.
type SVGOptions struct {
	Style   Style
	Focus   string  // Highlighted node id
	Padding float64 // Margin around the bounding box, model units
	Width   int     // Rendered width in pixels; 0 keeps model units
	Height  int
}

// DefaultSVGOptions returns default SVG rendering options.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Style: DefaultStyle(), Padding: 40}
}

type svgNode struct {
	ID, Label, Kind, Level string
	X, Y, R                float64
	Fill, Stroke           string
	StrokeWidth            float64
	LabelY                 float64
}

type svgEdge struct {
	X1, Y1, X2, Y2 float64
}

type svgData struct {
	MinX, MinY, W, H float64
	Width, Height    int
	EdgeColor        string
	LabelColor       string
	FontSize         float64
	Nodes            []svgNode
	Edges            []svgEdge
}

// RenderSVG draws one frame: edges first, then node circles colored by kind
// and level, each with its label below the circle.
func RenderSVG(nodes []graph.Node, edges []graph.Edge, opts SVGOptions) (string, error) {
	st := opts.Style
	if st.LevelColors == nil {
		st = DefaultStyle()
	}

	data := svgData{
		EdgeColor:  st.EdgeColor,
		LabelColor: st.LabelColor,
		FontSize:   st.FontSize,
		Width:      opts.Width,
		Height:     opts.Height,
	}

	pos := make(map[string]graph.Node, len(nodes))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		pos[n.ID] = n
		r := st.RadiusFor(n)
		minX, maxX = math.Min(minX, n.X-r), math.Max(maxX, n.X+r)
		minY, maxY = math.Min(minY, n.Y-r), math.Max(maxY, n.Y+r+st.FontSize*1.5)

		sn := svgNode{
			ID:     n.ID,
			Label:  n.Label,
			Kind:   string(n.Kind),
			Level:  string(n.Level),
			X:      n.X,
			Y:      n.Y,
			R:      r,
			Fill:   st.Fill(n),
			Stroke: "#FFFFFF",
			LabelY: n.Y + r + st.FontSize,
		}
		sn.StrokeWidth = 1.5
		if n.ID == opts.Focus {
			sn.Stroke = st.FocusColor
			sn.StrokeWidth = 3
		}
		data.Nodes = append(data.Nodes, sn)
	}

	for _, e := range edges {
		s, ok1 := pos[e.SourceID]
		t, ok2 := pos[e.TargetID]
		if !ok1 || !ok2 {
			return "", fmt.Errorf("rendering edge %s: %w", graph.EdgeID(e), graph.ErrDanglingEdge)
		}
		data.Edges = append(data.Edges, svgEdge{X1: s.X, Y1: s.Y, X2: t.X, Y2: t.Y})
	}

	if len(nodes) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	data.MinX = minX - opts.Padding
	data.MinY = minY - opts.Padding
	data.W = maxX - minX + 2*opts.Padding
	data.H = maxY - minY + 2*opts.Padding

	var buf bytes.Buffer
	if err := compiledSVG.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing svg template: %w", err)
	}
	return buf.String(), nil
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title string
	SVG   SVGOptions
}

// DefaultHTMLOptions returns default HTML generation options.
func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{Title: "Skill Tree", SVG: DefaultSVGOptions()}
}

type pageData struct {
	Title     string
	SVG       template.HTML
	GraphJSON template.JS
	Legend    []legendEntry
}

type legendEntry struct {
	Label, Color string
}

// GenerateHTML generates a self-contained HTML page showing the laid-out
// graph. The page also carries the graph in Cytoscape.js JSON form for
// scripts that want to pick it up.
func GenerateHTML(g *graph.Graph, opts HTMLOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if g.IsEmpty() || onlyRoot(g) {
		return generateEmptyHTML(), nil
	}

	svg, err := RenderSVG(g.Nodes, g.Edges, opts.SVG)
	if err != nil {
		return "", err
	}
	// json.Marshal escapes <, > and & so labels cannot close the script.
	graphJSON, err := json.Marshal(g.ToCytoscape())
	if err != nil {
		return "", fmt.Errorf("marshaling graph: %w", err)
	}

	st := opts.SVG.Style
	if st.LevelColors == nil {
		st = DefaultStyle()
	}
	title := opts.Title
	if title == "" {
		title = "Skill Tree"
	}

	data := pageData{
		Title:     title,
		SVG:       template.HTML(svg),
		GraphJSON: template.JS(string(graphJSON)),
	}
	for _, lvl := range skill.Levels {
		data.Legend = append(data.Legend, legendEntry{Label: string(lvl), Color: st.LevelColors[lvl]})
	}

	var buf bytes.Buffer
	if err := compiledPage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing page template: %w", err)
	}
	return buf.String(), nil
}

func onlyRoot(g *graph.Graph) bool {
	return len(g.Nodes) == 1 && g.Nodes[0].Kind == graph.KindRoot
}

// generateEmptyHTML returns HTML for an empty skill tree.
func generateEmptyHTML() string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Skill Tree - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No skills yet</h2>
    <p>Add skills using <code>skt skill add</code></p>
    <p>Browse the catalog with <code>skt taxonomy list</code></p>
  </div>
</body>
</html>`
}

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="{{printf "%.2f %.2f %.2f %.2f" .MinX .MinY .W .H}}"{{if .Width}} width="{{.Width}}"{{end}}{{if .Height}} height="{{.Height}}"{{end}} font-family="sans-serif" font-size="{{.FontSize}}">
  <g class="edges" stroke="{{.EdgeColor}}" stroke-width="1.5">
{{- range .Edges}}
    <line x1="{{printf "%.2f" .X1}}" y1="{{printf "%.2f" .Y1}}" x2="{{printf "%.2f" .X2}}" y2="{{printf "%.2f" .Y2}}"/>
{{- end}}
  </g>
  <g class="nodes">
{{- range .Nodes}}
    <g class="node {{.Kind}}" data-id="{{.ID}}"{{if .Level}} data-level="{{.Level}}"{{end}}>
      <circle cx="{{printf "%.2f" .X}}" cy="{{printf "%.2f" .Y}}" r="{{printf "%.1f" .R}}" fill="{{.Fill}}" stroke="{{.Stroke}}" stroke-width="{{.StrokeWidth}}"/>
      <text x="{{printf "%.2f" .X}}" y="{{printf "%.2f" .LabelY}}" text-anchor="middle" fill="{{$.LabelColor}}">{{.Label}}</text>
    </g>
{{- end}}
  </g>
</svg>`

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #canvas {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #canvas svg {
      width: 100%;
      height: 100%;
    }
    .node:hover circle {
      stroke: #ff6b6b;
      stroke-width: 3;
    }
    #legend {
      position: absolute;
      top: 12px;
      right: 12px;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      font-size: 12px;
    }
    #legend .swatch {
      display: inline-block;
      width: 10px;
      height: 10px;
      border-radius: 50%;
      margin-right: 6px;
    }
  </style>
</head>
<body>
  <div id="canvas">{{.SVG}}</div>
  <div id="legend">
{{- range .Legend}}
    <div><span class="swatch" style="background: {{.Color}}"></span>{{.Label}}</div>
{{- end}}
  </div>
  <script>
    window.skillGraph = {{.GraphJSON}};
  </script>
</body>
</html>`
