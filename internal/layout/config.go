// Package layout implements the force-directed layout engine: a
// simulation whose alpha decays geometrically from 1 towards 0 while link,
// many-body, centering and collision forces move the nodes of a graph.
package layout

import (
	"math"

	"github.com/matsen/skilltree/internal/graph"
)

// RadiusConfig sets the collision radius per node kind.
type RadiusConfig struct {
	Root     float64 `json:"root,omitempty"`
	Category float64 `json:"category,omitempty"`
	Skill    float64 `json:"skill,omitempty"`
}

// For returns the radius for kind k.
func (r RadiusConfig) For(k graph.Kind) float64 {
	switch k {
	case graph.KindRoot:
		return r.Root
	case graph.KindCategory:
		return r.Category
	default:
		return r.Skill
	}
}

// Config holds the simulation parameters. Zero fields take the defaults
// from DefaultConfig.
type Config struct {
	// Cooling
	Alpha           float64 `json:"alpha,omitempty"`             // default 1
	AlphaMin        float64 `json:"alpha_min,omitempty"`         // default 0.001
	AlphaDecay      float64 `json:"alpha_decay,omitempty"`       // default 1 - 0.001^(1/300) ≈ 0.0228
	DragAlphaTarget float64 `json:"drag_alpha_target,omitempty"` // default 0.3
	VelocityDecay   float64 `json:"velocity_decay,omitempty"`    // default 0.4

	// Many-body
	ChargeStrength    float64 `json:"charge_strength,omitempty"`     // default -300
	ChargeDistanceMin float64 `json:"charge_distance_min,omitempty"` // default 1
	ChargeDistanceMax float64 `json:"charge_distance_max,omitempty"` // default 0 (unbounded)

	// Links
	LinkDistance   float64 `json:"link_distance,omitempty"`   // default 100
	LinkStrength   float64 `json:"link_strength,omitempty"`   // default 0: 1/min(degree) per link
	LinkIterations int     `json:"link_iterations,omitempty"` // default 1

	// Centering
	CenterX        float64 `json:"center_x,omitempty"`
	CenterY        float64 `json:"center_y,omitempty"`
	CenterStrength float64 `json:"center_strength,omitempty"` // default 0.05

	// Collision
	CollideStrength   float64      `json:"collide_strength,omitempty"`   // default 0.7
	CollideIterations int          `json:"collide_iterations,omitempty"` // default 1
	CollidePadding    float64      `json:"collide_padding,omitempty"`    // default 4
	Radius            RadiusConfig `json:"radius,omitempty"`

	// Seed for the jiggle applied to coincident nodes.
	Seed uint64 `json:"seed,omitempty"`
}

// Default simulation constants.
const (
	DefaultAlphaMin    = 0.001
	DefaultSettleTicks = 300
)

// DefaultConfig returns parameters that settle a graph in about 300 ticks.
func DefaultConfig() Config {
	return Config{
		Alpha:             1,
		AlphaMin:          DefaultAlphaMin,
		AlphaDecay:        1 - math.Pow(DefaultAlphaMin, 1.0/DefaultSettleTicks),
		DragAlphaTarget:   0.3,
		VelocityDecay:     0.4,
		ChargeStrength:    -300,
		ChargeDistanceMin: 1,
		LinkDistance:      100,
		LinkIterations:    1,
		CenterStrength:    0.05,
		CollideStrength:   0.7,
		CollideIterations: 1,
		CollidePadding:    4,
		Radius:            RadiusConfig{Root: 28, Category: 18, Skill: 10},
		Seed:              1,
	}
}

// WithDefaults fills every zero field of c from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Alpha != 0 {
		d.Alpha = c.Alpha
	}
	if c.AlphaMin != 0 {
		d.AlphaMin = c.AlphaMin
	}
	if c.AlphaDecay != 0 {
		d.AlphaDecay = c.AlphaDecay
	}
	if c.DragAlphaTarget != 0 {
		d.DragAlphaTarget = c.DragAlphaTarget
	}
	if c.VelocityDecay != 0 {
		d.VelocityDecay = c.VelocityDecay
	}
	if c.ChargeStrength != 0 {
		d.ChargeStrength = c.ChargeStrength
	}
	if c.ChargeDistanceMin != 0 {
		d.ChargeDistanceMin = c.ChargeDistanceMin
	}
	if c.ChargeDistanceMax != 0 {
		d.ChargeDistanceMax = c.ChargeDistanceMax
	}
	if c.LinkDistance != 0 {
		d.LinkDistance = c.LinkDistance
	}
	if c.LinkStrength != 0 {
		d.LinkStrength = c.LinkStrength
	}
	if c.LinkIterations != 0 {
		d.LinkIterations = c.LinkIterations
	}
	d.CenterX, d.CenterY = c.CenterX, c.CenterY
	if c.CenterStrength != 0 {
		d.CenterStrength = c.CenterStrength
	}
	if c.CollideStrength != 0 {
		d.CollideStrength = c.CollideStrength
	}
	if c.CollideIterations != 0 {
		d.CollideIterations = c.CollideIterations
	}
	if c.CollidePadding != 0 {
		d.CollidePadding = c.CollidePadding
	}
	if c.Radius.Root != 0 {
		d.Radius.Root = c.Radius.Root
	}
	if c.Radius.Category != 0 {
		d.Radius.Category = c.Radius.Category
	}
	if c.Radius.Skill != 0 {
		d.Radius.Skill = c.Radius.Skill
	}
	if c.Seed != 0 {
		d.Seed = c.Seed
	}
	return d
}
