package gamemap

import (
	"container/heap"

	"github.com/emberfall/server/internal/geom"
)

// basicCost is the G cost of one orthogonal step. Diagonal steps cost
// basicCost*362/256, a close integer fit for sqrt(2).
const basicCost = 100

// location is an open-list entry. fCost is copied at push time; stale
// entries are skipped via the closed check when popped.
type location struct {
	x, y  int
	fCost int
}

type openList []location

func (o openList) Len() int            { return len(o) }
func (o openList) Less(i, j int) bool  { return o[i].fCost < o[j].fCost }
func (o openList) Swap(i, j int)       { o[i], o[j] = o[j], o[i] }
func (o *openList) Push(v interface{}) { *o = append(*o, v.(location)) }
func (o *openList) Pop() interface{} {
	old := *o
	n := len(old)
	v := old[n-1]
	*o = old[:n-1]
	return v
}

// FindPath runs A* over the tile grid from (startX,startY) to (destX,destY)
// for an entity with the given walkmask. Paths whose G cost would exceed
// maxCost*basicCost are rejected. The returned path excludes the start tile
// and ends on the destination tile; it is empty when no route exists.
func (m *Map) FindPath(startX, startY, destX, destY int, walkmask uint8, maxCost int) geom.Path {
	// Bump the search generation; tiles from older searches read as unvisited.
	m.searchGen += 2
	onOpen, onClosed := m.searchGen, m.searchGen+1

	if !m.GetWalk(destX, destY, walkmask) {
		return nil
	}
	if !m.Contains(startX, startY) {
		return nil
	}

	start := &m.tiles[startX+startY*m.width]
	start.gCost = 0

	open := openList{{x: startX, y: startY}}
	found := false

	for len(open) > 0 && !found {
		curr := heap.Pop(&open).(location)
		tile := &m.tiles[curr.x+curr.y*m.width]

		// Already settled with a shorter route.
		if tile.whichList == onClosed {
			continue
		}
		tile.whichList = onClosed

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				x, y := curr.x+dx, curr.y+dy
				if (dx == 0 && dy == 0) || !m.Contains(x, y) {
					continue
				}

				next := &m.tiles[x+y*m.width]
				if next.whichList == onClosed || next.blockmask&walkmask != 0 {
					continue
				}

				// A diagonal step may not cut a blocked corner.
				if dx != 0 && dy != 0 {
					t1 := &m.tiles[curr.x+(curr.y+dy)*m.width]
					t2 := &m.tiles[(curr.x+dx)+curr.y*m.width]
					if (t1.blockmask|t2.blockmask)&walkmask != 0 {
						continue
					}
				}

				gCost := tile.gCost
				if dx == 0 || dy == 0 {
					// The +1 demotes orthogonal steps so two otherwise equal
					// routes get distinct F costs and the search settles faster.
					// Each orthogonal step adds one, so the total perturbation
					// grows with path length and is not bounded by basicCost.
					gCost += basicCost + 1
				} else {
					gCost += basicCost * 362 / 256
				}

				if gCost > maxCost*basicCost {
					continue
				}

				if next.whichList != onOpen {
					// The heuristic must not exceed the real cost; Manhattan
					// distance would with diagonals allowed.
					hx, hy := abs(x-destX), abs(y-destY)
					next.hCost = abs(hx-hy)*basicCost + min(hx, hy)*(basicCost*362/256)

					next.parentX, next.parentY = curr.x, curr.y
					next.gCost = gCost
					next.fCost = gCost + next.hCost

					if x != destX || y != destY {
						next.whichList = onOpen
						heap.Push(&open, location{x: x, y: y, fCost: next.fCost})
					} else {
						found = true
					}
				} else if gCost < next.gCost {
					// Found a shorter route to an open tile.
					next.gCost = gCost
					next.fCost = gCost + next.hCost
					next.parentX, next.parentY = curr.x, curr.y
					heap.Push(&open, location{x: x, y: y, fCost: next.fCost})
				}
			}
		}
	}

	if !found {
		return nil
	}

	// Walk parents back from the destination, then reverse.
	var path geom.Path
	x, y := destX, destY
	for x != startX || y != startY {
		path = append(path, geom.Point{X: x, Y: y})
		t := &m.tiles[x+y*m.width]
		x, y = t.parentX, t.parentY
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
