package server

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/default.yaml
var seedFS embed.FS

// Seed is the initial content of an empty database.
type Seed struct {
	Sites []SeedSite `yaml:"sites"`
}

type SeedSite struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Fail   bool        `yaml:"fail"`
	Groups []SeedGroup `yaml:"groups"`
}

type SeedGroup struct {
	Spaces []SeedSpace `yaml:"spaces"`
}

type SeedSpace struct {
	ID      int          `yaml:"id"`
	Name    string       `yaml:"name"`
	Parent  *int         `yaml:"parent"`
	Streams []SeedStream `yaml:"streams"`
}

type SeedStream struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

func ParseSeed(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// LoadSeed reads a seed file; an empty path yields the embedded default.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeed(b)
}

func DefaultSeed() (Seed, error) {
	b, err := seedFS.ReadFile("seed/default.yaml")
	if err != nil {
		return Seed{}, err
	}
	return ParseSeed(b)
}

func (s Seed) validate() error {
	sites := map[string]bool{}
	spaces := map[int]bool{}
	streams := map[int]bool{}
	for _, site := range s.Sites {
		if site.ID == "" {
			return fmt.Errorf("seed: site %q has no id", site.Name)
		}
		if sites[site.ID] {
			return fmt.Errorf("seed: duplicate site id %s", site.ID)
		}
		sites[site.ID] = true
		for _, g := range site.Groups {
			for _, sp := range g.Spaces {
				if spaces[sp.ID] {
					return fmt.Errorf("seed: duplicate space id %d", sp.ID)
				}
				spaces[sp.ID] = true
				for _, st := range sp.Streams {
					if st.ID <= 0 {
						return fmt.Errorf("seed: stream %q needs a positive id", st.Name)
					}
					if streams[st.ID] {
						return fmt.Errorf("seed: duplicate stream id %d", st.ID)
					}
					streams[st.ID] = true
				}
			}
		}
	}
	return nil
}
