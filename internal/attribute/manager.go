package attribute

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Info is the immutable definition of one attribute: its modifier layers and
// the attributes that must recompute when it changes.
type Info struct {
	ID         int
	Name       string
	Layers     []LayerSpec
	Dependents []int
}

// Manager holds the immutable attribute table and dependency graph, built
// once at startup. Cycles are a loading error.
type Manager struct {
	infos map[int]*Info
}

type attributeFile struct {
	Attributes []struct {
		ID     int    `yaml:"id"`
		Name   string `yaml:"name"`
		Layers []struct {
			Stack string `yaml:"stack"`
			Apply string `yaml:"apply"`
		} `yaml:"layers"`
		Dependents []int `yaml:"dependents"`
	} `yaml:"attributes"`
}

// LoadManager reads the attribute definition file and validates the
// dependency graph.
func LoadManager(path string) (*Manager, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attributes %s: %w", path, err)
	}
	var af attributeFile
	if err := yaml.Unmarshal(raw, &af); err != nil {
		return nil, fmt.Errorf("parse attributes %s: %w", path, err)
	}

	m := &Manager{infos: make(map[int]*Info, len(af.Attributes))}
	for _, a := range af.Attributes {
		info := &Info{ID: a.ID, Name: a.Name, Dependents: a.Dependents}
		for _, l := range a.Layers {
			var spec LayerSpec
			switch l.Stack {
			case "stackable":
				spec.Stack = Stackable
			case "non_stackable":
				spec.Stack = NonStackable
			case "non_stackable_bonus":
				spec.Stack = NonStackableBonus
			default:
				return nil, fmt.Errorf("attribute %d: unknown stack type %q", a.ID, l.Stack)
			}
			switch l.Apply {
			case "", "additive":
				spec.Apply = Additive
			case "multiplicative":
				spec.Apply = Multiplicative
			default:
				return nil, fmt.Errorf("attribute %d: unknown apply type %q", a.ID, l.Apply)
			}
			info.Layers = append(info.Layers, spec)
		}
		if _, dup := m.infos[a.ID]; dup {
			return nil, fmt.Errorf("attribute %d: duplicate definition", a.ID)
		}
		m.infos[a.ID] = info
	}

	if err := m.checkAcyclic(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewManager builds a manager from already-constructed infos, for tests and
// embedded defaults.
func NewManager(infos []*Info) (*Manager, error) {
	m := &Manager{infos: make(map[int]*Info, len(infos))}
	for _, info := range infos {
		if _, dup := m.infos[info.ID]; dup {
			return nil, fmt.Errorf("attribute %d: duplicate definition", info.ID)
		}
		m.infos[info.ID] = info
	}
	if err := m.checkAcyclic(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) Info(id int) *Info { return m.infos[id] }

// checkAcyclic rejects dependency cycles with a recursive three-color walk.
func (m *Manager) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(m.infos))

	var visit func(id int) error
	visit = func(id int) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("attribute %d: dependency cycle", id)
		case black:
			return nil
		}
		color[id] = gray
		if info := m.infos[id]; info != nil {
			for _, dep := range info.Dependents {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}

	for id := range m.infos {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
