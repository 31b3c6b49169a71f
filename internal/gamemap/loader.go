package gamemap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mapFile is the on-disk YAML shape of one map definition.
type mapFile struct {
	ID         int               `yaml:"id"`
	Name       string            `yaml:"name"`
	Width      int               `yaml:"width"`
	Height     int               `yaml:"height"`
	TileWidth  int               `yaml:"tile_width"`
	TileHeight int               `yaml:"tile_height"`
	Properties map[string]string `yaml:"properties"`
	// Walls are horizontal runs of permanently blocked tiles.
	Walls []wallRun `yaml:"walls"`
}

type wallRun struct {
	X   int `yaml:"x"`
	Y   int `yaml:"y"`
	Len int `yaml:"len"`
}

// Load reads one map definition and seeds its wall occupancy.
func Load(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	var mf mapFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	if mf.Width <= 0 || mf.Height <= 0 {
		return nil, fmt.Errorf("map %s: invalid dimensions %dx%d", path, mf.Width, mf.Height)
	}

	m := New(mf.ID, mf.Width, mf.Height, mf.TileWidth, mf.TileHeight)
	if mf.Name != "" {
		m.SetProperty("name", mf.Name)
	}
	for k, v := range mf.Properties {
		m.SetProperty(k, v)
	}
	for _, run := range mf.Walls {
		n := run.Len
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			m.BlockTile(run.X+i, run.Y, BlockWall)
		}
	}
	return m, nil
}
