// Package view renders laid-out skill graphs and translates pointer input
// into layout and edit operations.
package view

import (
	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/layout"
	"github.com/matsen/skilltree/internal/skill"
)

// Style holds sizes and colors for rendering.
type Style struct {
	Radius        layout.RadiusConfig
	RootColor     string
	CategoryColor string
	LevelColors   map[skill.Level]string
	FocusColor    string
	EdgeColor     string
	LabelColor    string
	FontSize      float64
}

// DefaultStyle returns the standard palette: skill levels ramp from a cool
// blue for beginners to a warm red for experts.
func DefaultStyle() Style {
	return Style{
		Radius:        layout.DefaultConfig().Radius,
		RootColor:     "#34495E",
		CategoryColor: "#7F8C8D",
		LevelColors: map[skill.Level]string{
			skill.Beginner:     "#4A90D9",
			skill.Intermediate: "#27AE60",
			skill.Advanced:     "#E8923A",
			skill.Expert:       "#D9534F",
		},
		FocusColor: "#FF6B6B",
		EdgeColor:  "#95A5A6",
		LabelColor: "#333333",
		FontSize:   11,
	}
}

// RadiusFor returns the drawn radius of n.
func (s Style) RadiusFor(n graph.Node) float64 {
	return s.Radius.For(n.Kind)
}

// Fill returns the fill color of n.
func (s Style) Fill(n graph.Node) string {
	switch n.Kind {
	case graph.KindRoot:
		return s.RootColor
	case graph.KindCategory:
		return s.CategoryColor
	}
	if c, ok := s.LevelColors[skill.NormalizeLevel(n.Level)]; ok {
		return c
	}
	return s.LevelColors[skill.DefaultLevel]
}
