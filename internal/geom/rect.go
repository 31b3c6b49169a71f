package geom

// Rectangle is an axis-aligned pixel rectangle.
type Rectangle struct {
	X int
	Y int
	W int
	H int
}

func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rectangle) Intersects(o Rectangle) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// IntersectsDisk reports whether the rectangle touches the disk around c.
// Used by the zone fill-region query.
func (r Rectangle) IntersectsDisk(c Point, radius int) bool {
	nx := clamp(c.X, r.X, r.X+r.W-1)
	ny := clamp(c.Y, r.Y, r.Y+r.H-1)
	return c.InRangeOf(Point{X: nx, Y: ny}, radius)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
