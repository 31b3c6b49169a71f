package geom

// Path is an ordered list of tile coordinates produced by the path engine.
// The first node is adjacent to the start tile; the last node is the
// destination tile.
type Path []Point

func (p Path) Empty() bool { return len(p) == 0 }

// Front returns the next node without removing it.
func (p Path) Front() Point { return p[0] }

// Advance drops the front node and returns the remainder.
func (p Path) Advance() Path { return p[1:] }
