package combat

import "math"

// Vec2 is a position or direction on the battle plane.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Normalize returns the unit vector of v, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Distance returns the straight-line distance between a and b.
func Distance(a, b Vec2) float64 { return a.Sub(b).Len() }

// distanceToSegment returns the shortest distance from p to the segment a-b,
// and the projection parameter along the segment in [0, 1].
func distanceToSegment(p, a, b Vec2) (float64, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return Distance(p, a), 0
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Distance(p, a.Add(ab.Scale(t))), t
}

// angleBetween returns the unsigned angle in degrees between two directions.
func angleBetween(a, b Vec2) float64 {
	an, bn := a.Normalize(), b.Normalize()
	if an == (Vec2{}) || bn == (Vec2{}) {
		return 0
	}
	cos := math.Max(-1, math.Min(1, an.Dot(bn)))
	return math.Acos(cos) * 180 / math.Pi
}

// Terrain answers obstruction probes for displacement effects.
type Terrain interface {
	// Clearance returns how far a body can travel from origin along the unit
	// direction dir before hitting an obstacle, capped at max.
	Clearance(origin, dir Vec2, max float64) float64
}

// OpenField is a Terrain with no obstacles.
type OpenField struct{}

// Clearance always returns max.
func (OpenField) Clearance(_, _ Vec2, max float64) float64 { return max }

// Wall is an axis-free line obstacle used by Walls.
type Wall struct {
	A, B Vec2
}

// Walls is a Terrain made of line-segment obstacles.
type Walls []Wall

// Clearance returns the distance to the first wall crossed along dir.
func (w Walls) Clearance(origin, dir Vec2, max float64) float64 {
	end := origin.Add(dir.Scale(max))
	best := max
	for _, wall := range w {
		if d, ok := segmentIntersection(origin, end, wall.A, wall.B); ok && d < best {
			best = d
		}
	}
	return best
}

// segmentIntersection returns the distance from p to the crossing of p-p2
// with q-q2.
func segmentIntersection(p, p2, q, q2 Vec2) (float64, bool) {
	r := p2.Sub(p)
	s := q2.Sub(q)
	denom := r.X*s.Y - r.Y*s.X
	if denom == 0 {
		return 0, false
	}
	qp := q.Sub(p)
	t := (qp.X*s.Y - qp.Y*s.X) / denom
	u := (qp.X*r.Y - qp.Y*r.X) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return r.Len() * t, true
}
