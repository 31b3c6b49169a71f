package attribute

// Set is one entity's attribute table. All mutation goes through SetBase,
// AddModifier and RemoveBySource so the modified value and the dependency
// cascade stay consistent.
type Set struct {
	mgr   *Manager
	attrs map[int]*Attribute

	// hasExpiring is the cheap flag that lets the tick scan skip entities
	// with no duration-bound modifiers.
	hasExpiring bool
}

func NewSet(mgr *Manager) *Set {
	return &Set{
		mgr:   mgr,
		attrs: make(map[int]*Attribute, 16),
	}
}

func (s *Set) HasExpiring() bool { return s.hasExpiring }

// Get returns the attribute, creating it lazily at base 0.
func (s *Set) Get(id int) *Attribute {
	a, ok := s.attrs[id]
	if !ok {
		a = &Attribute{}
		s.attrs[id] = a
	}
	return a
}

// Has reports whether the attribute exists without creating it.
func (s *Set) Has(id int) bool {
	_, ok := s.attrs[id]
	return ok
}

func (s *Set) Base(id int) float64 {
	if a, ok := s.attrs[id]; ok {
		return a.base
	}
	return 0
}

func (s *Set) Modified(id int) float64 {
	if a, ok := s.attrs[id]; ok {
		return a.modified
	}
	return 0
}

// Each visits every attribute in the set.
func (s *Set) Each(fn func(id int, a *Attribute)) {
	for id, a := range s.attrs {
		fn(id, a)
	}
}

// SetBase assigns the base value and recomputes the attribute and its
// dependents. Returns the ids whose modified value actually changed, in
// recompute order.
func (s *Set) SetBase(id int, base float64) []int {
	a := s.Get(id)
	a.base = base
	return s.cascade(id)
}

// ForceModified installs a modified value directly, bypassing recompute.
// Only deserialization uses it, before any modifiers exist.
func (s *Set) ForceModified(id int, base, modified float64) {
	a := s.Get(id)
	a.base = base
	a.modified = modified
}

// AddModifier attaches a modifier and recomputes. Layer indexes into the
// attribute's layer list; out-of-range layers are clamped to the last layer.
func (s *Set) AddModifier(id int, m Modifier) []int {
	a := s.Get(id)
	if layers := s.layersFor(id); len(layers) > 0 && m.Layer >= len(layers) {
		m.Layer = len(layers) - 1
	}
	a.mods = append(a.mods, m)
	if m.Duration > 0 {
		s.hasExpiring = true
	}
	return s.cascade(id)
}

// RemoveBySource drops every modifier the given source attached and
// recomputes. A zero sourceID removes nothing.
func (s *Set) RemoveBySource(id, sourceID int) []int {
	a, ok := s.attrs[id]
	if !ok || sourceID == 0 {
		return nil
	}
	kept := a.mods[:0]
	for _, m := range a.mods {
		if m.SourceID != sourceID {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(a.mods) {
		return nil
	}
	a.mods = kept
	return s.cascade(id)
}

// TickDurations ages duration-bound modifiers by one tick and recomputes
// attributes whose modifiers expired. Returns changed attribute ids.
func (s *Set) TickDurations() []int {
	if !s.hasExpiring {
		return nil
	}
	var changed []int
	anyLeft := false
	for id, a := range s.attrs {
		expired := false
		kept := a.mods[:0]
		for _, m := range a.mods {
			if m.Duration > 0 {
				if m.Duration--; m.Duration == 0 {
					expired = true
					continue
				}
				anyLeft = true
			}
			kept = append(kept, m)
		}
		a.mods = kept
		if expired {
			changed = append(changed, s.cascade(id)...)
		}
	}
	s.hasExpiring = anyLeft
	return changed
}

// layersFor falls back to a single stackable additive layer when the
// attribute table has no entry, so unknown attributes still behave sanely.
var defaultLayers = []LayerSpec{{Stack: Stackable, Apply: Additive}}

func (s *Set) layersFor(id int) []LayerSpec {
	if s.mgr != nil {
		if info := s.mgr.Info(id); info != nil {
			return info.Layers
		}
	}
	return defaultLayers
}

// cascade recomputes id and then its dependents in dependency order,
// iteratively with a visited set. Returns ids whose modified value changed.
func (s *Set) cascade(id int) []int {
	var changed []int
	visited := map[int]bool{}
	queue := []int{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		a, ok := s.attrs[cur]
		if !ok {
			continue
		}
		before := a.modified
		a.recompute(s.layersFor(cur))
		if a.modified != before {
			changed = append(changed, cur)
		}

		if s.mgr != nil {
			if info := s.mgr.Info(cur); info != nil {
				queue = append(queue, info.Dependents...)
			}
		}
	}
	return changed
}
