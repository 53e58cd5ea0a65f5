package window

import (
	"spacenav/internal/model"
	"spacenav/internal/tree"
)

const (
	DefaultMaxHeight  = 400
	DefaultItemHeight = 48
	DefaultThreshold  = 20
	DefaultOverscan   = 3

	// RootThreshold is the threshold applied at the top of the tree unless
	// configured otherwise.
	RootThreshold = 7
)

// Config controls windowing for one node's children.
type Config struct {
	Enabled    bool `json:"enabled" mapstructure:"enabled"`
	MaxHeight  int  `json:"maxHeight" mapstructure:"max_height"`
	ItemHeight int  `json:"itemHeight" mapstructure:"item_height"`
	Threshold  int  `json:"threshold" mapstructure:"threshold"`
	Overscan   int  `json:"overscan" mapstructure:"overscan"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		MaxHeight:  DefaultMaxHeight,
		ItemHeight: DefaultItemHeight,
		Threshold:  DefaultThreshold,
		Overscan:   DefaultOverscan,
	}
}

func (c Config) normalized() Config {
	if c.ItemHeight <= 0 {
		c.ItemHeight = DefaultItemHeight
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = DefaultMaxHeight
	}
	if c.Overscan < 0 {
		c.Overscan = 0
	}
	return c
}

// Override replaces individual fields for a subtree. Nil fields inherit.
type Override struct {
	Enabled    *bool `json:"enabled,omitempty" mapstructure:"enabled"`
	MaxHeight  *int  `json:"maxHeight,omitempty" mapstructure:"max_height"`
	ItemHeight *int  `json:"itemHeight,omitempty" mapstructure:"item_height"`
	Threshold  *int  `json:"threshold,omitempty" mapstructure:"threshold"`
	Overscan   *int  `json:"overscan,omitempty" mapstructure:"overscan"`
}

func (o Override) Apply(c Config) Config {
	if o.Enabled != nil {
		c.Enabled = *o.Enabled
	}
	if o.MaxHeight != nil {
		c.MaxHeight = *o.MaxHeight
	}
	if o.ItemHeight != nil {
		c.ItemHeight = *o.ItemHeight
	}
	if o.Threshold != nil {
		c.Threshold = *o.Threshold
	}
	if o.Overscan != nil {
		c.Overscan = *o.Overscan
	}
	return c
}

// Policy supplies configuration top-down: every node inherits its parent's
// settings unless an override is registered for it.
type Policy struct {
	Root      Config
	Overrides map[int]Override
}

func DefaultPolicy() Policy {
	root := DefaultConfig()
	root.Threshold = RootThreshold
	return Policy{Root: root}
}

// For resolves the effective config for nodeID. Unknown nodes get Root.
func (p Policy) For(forest model.Forest, nodeID int) Config {
	cfg := p.Root
	if len(p.Overrides) == 0 {
		return cfg.normalized()
	}
	for _, id := range tree.PathTo(forest, nodeID) {
		if o, ok := p.Overrides[id]; ok {
			cfg = o.Apply(cfg)
		}
	}
	return cfg.normalized()
}
