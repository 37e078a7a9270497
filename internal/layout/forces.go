package layout

import "math"

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// applyLinks pulls every parent/child pair towards LinkDistance. The
// correction is split between the endpoints by degree so hubs move less.
func (s *Simulation) applyLinks() {
	for k := 0; k < s.cfg.LinkIterations; k++ {
		for _, l := range s.links {
			src, tgt := &s.nodes[l.source], &s.nodes[l.target]
			x := tgt.X + tgt.VX - src.X - src.VX
			y := tgt.Y + tgt.VY - src.Y - src.VY
			if x == 0 {
				x = s.jiggle()
			}
			if y == 0 {
				y = s.jiggle()
			}
			d := math.Sqrt(x*x + y*y)
			f := (d - s.cfg.LinkDistance) / d * s.alpha * l.strength
			x *= f
			y *= f
			if !tgt.Pinned() {
				tgt.VX -= x * l.bias
				tgt.VY -= y * l.bias
			}
			if !src.Pinned() {
				src.VX += x * (1 - l.bias)
				src.VY += y * (1 - l.bias)
			}
		}
	}
}

// applyCharge applies the many-body force between every pair of nodes.
// A negative strength repels.
func (s *Simulation) applyCharge() {
	min2 := s.cfg.ChargeDistanceMin * s.cfg.ChargeDistanceMin
	max2 := math.Inf(1)
	if s.cfg.ChargeDistanceMax > 0 {
		max2 = s.cfg.ChargeDistanceMax * s.cfg.ChargeDistanceMax
	}
	w := s.cfg.ChargeStrength * s.alpha

	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Pinned() {
			continue
		}
		for j := range s.nodes {
			if i == j {
				continue
			}
			o := &s.nodes[j]
			x := o.X - n.X
			y := o.Y - n.Y
			l := x*x + y*y
			if l >= max2 {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			n.VX += x * w / l
			n.VY += y * w / l
		}
	}
}

// applyCenter draws free nodes towards the center. When nothing is pinned
// the whole layout is also translated so its mean sits on the center.
func (s *Simulation) applyCenter() {
	cx, cy := s.cfg.CenterX, s.cfg.CenterY
	k := s.cfg.CenterStrength * s.alpha

	var sx, sy float64
	free := 0
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Pinned() {
			continue
		}
		n.VX += (cx - n.X) * k
		n.VY += (cy - n.Y) * k
		sx += n.X
		sy += n.Y
		free++
	}
	if free == 0 || free != len(s.nodes) {
		return
	}
	dx := sx/float64(free) - cx
	dy := sy/float64(free) - cy
	for i := range s.nodes {
		s.nodes[i].X -= dx
		s.nodes[i].Y -= dy
	}
}

// applyCollide pushes apart nodes whose circles overlap. The push is shared
// in proportion to the other node's area; a pinned node does not move and
// its partner takes the whole correction.
func (s *Simulation) applyCollide() {
	for k := 0; k < s.cfg.CollideIterations; k++ {
		for i := range s.nodes {
			a := &s.nodes[i]
			ri := s.radii[i]
			for j := i + 1; j < len(s.nodes); j++ {
				b := &s.nodes[j]
				if a.Pinned() && b.Pinned() {
					continue
				}
				rj := s.radii[j]
				r := ri + rj
				x := a.X + a.VX - b.X - b.VX
				y := a.Y + a.VY - b.Y - b.VY
				l := x*x + y*y
				if l >= r*r {
					continue
				}
				if x == 0 {
					x = s.jiggle()
					l += x * x
				}
				if y == 0 {
					y = s.jiggle()
					l += y * y
				}
				d := math.Sqrt(l)
				f := (r - d) / d * s.cfg.CollideStrength
				x *= f
				y *= f

				share := rj * rj / (ri*ri + rj*rj)
				switch {
				case a.Pinned():
					share = 0
				case b.Pinned():
					share = 1
				}
				a.VX += x * share
				a.VY += y * share
				b.VX -= x * (1 - share)
				b.VY -= y * (1 - share)
			}
		}
	}
}
