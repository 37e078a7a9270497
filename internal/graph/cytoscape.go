package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CytoscapeElements represents the Cytoscape.js data format.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode represents a node in Cytoscape.js format. Position is the
// layout's current coordinate so the client can start from a settled state.
type CytoscapeNode struct {
	Data     CytoscapeNodeData `json:"data"`
	Position CytoscapePosition `json:"position"`
	Locked   bool              `json:"locked,omitempty"`
}

// CytoscapeNodeData contains the node data fields.
type CytoscapeNodeData struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
	Level string `json:"level,omitempty"`
}

// CytoscapePosition is a model coordinate.
type CytoscapePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CytoscapeEdge represents an edge in Cytoscape.js format.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ToCytoscape converts the graph to Cytoscape.js elements.
func (g *Graph) ToCytoscape() CytoscapeElements {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		pos := CytoscapePosition{X: n.X, Y: n.Y}
		if n.Pinned() {
			pos = CytoscapePosition{X: *n.FX, Y: *n.FY}
		}
		elements.Nodes = append(elements.Nodes, CytoscapeNode{
			Data:     CytoscapeNodeData{ID: n.ID, Label: n.Label, Kind: n.Kind, Level: string(n.Level)},
			Position: pos,
			Locked:   n.Pinned(),
		})
	}

	for _, e := range g.Edges {
		elements.Edges = append(elements.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     EdgeID(e),
				Source: e.SourceID,
				Target: e.TargetID,
			},
		})
	}

	return elements
}

// ToCytoscapeJSON converts the graph to Cytoscape.js JSON format. Ids and
// labels are written without HTML escaping; use json.Marshal on
// ToCytoscape when embedding the result in a page.
func (g *Graph) ToCytoscapeJSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(g.ToCytoscape()); err != nil {
		return "", fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// EdgeID returns a stable edge id. Every node has a single parent, so the
// endpoint pair is unique.
func EdgeID(e Edge) string {
	return e.SourceID + "->" + e.TargetID
}
