package layout

import (
	"errors"
	"fmt"
)

// Direction is the flow direction of ranks.
type Direction string

const (
	DirectionLR Direction = "LR" // Left to right (default)
	DirectionRL Direction = "RL"
	DirectionTB Direction = "TB"
	DirectionBT Direction = "BT"
)

// RankerNetworkSimplex is the only supported ranking strategy.
const RankerNetworkSimplex = "network-simplex"

// Default layout values for lineage graphs.
const (
	DefaultNodeWidth  = 300.0
	DefaultNodeHeight = 50.0
	DefaultMarginX    = 140.0
	DefaultMarginY    = 40.0
	DefaultNodeSep    = 60.0
	DefaultRankSep    = 140.0
)

var (
	// ErrInvalidDirection is returned by [Config.Validate] for unknown directions.
	ErrInvalidDirection = errors.New("invalid layout direction")

	// ErrUnsupportedRanker is returned by [Config.Validate] for rankers other
	// than network-simplex.
	ErrUnsupportedRanker = errors.New("unsupported ranker")

	// ErrInvalidNodeSize is returned by [Config.Validate] for non-positive node sizes.
	ErrInvalidNodeSize = errors.New("node width and height must be positive")

	// ErrNegativeSpacing is returned by [Config.Validate] for negative margins
	// or separations.
	ErrNegativeSpacing = errors.New("margins and separations must not be negative")
)

// Config controls how the engine places nodes. All distances are in pixels.
type Config struct {
	Direction  Direction `json:"direction" toml:"direction"`
	Ranker     string    `json:"ranker" toml:"ranker"`
	MarginX    float64   `json:"margin_x" toml:"margin_x"`
	MarginY    float64   `json:"margin_y" toml:"margin_y"`
	NodeSep    float64   `json:"node_sep" toml:"node_sep"` // Gap between nodes in the same rank
	RankSep    float64   `json:"rank_sep" toml:"rank_sep"` // Gap between ranks
	NodeWidth  float64   `json:"node_width" toml:"node_width"`
	NodeHeight float64   `json:"node_height" toml:"node_height"`
}

// DefaultConfig returns the left-to-right lineage layout.
func DefaultConfig() Config {
	return Config{
		Direction:  DirectionLR,
		Ranker:     RankerNetworkSimplex,
		MarginX:    DefaultMarginX,
		MarginY:    DefaultMarginY,
		NodeSep:    DefaultNodeSep,
		RankSep:    DefaultRankSep,
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
	}
}

// WithDefaults fills zero-valued fields from [DefaultConfig].
// Margins and separations are only defaulted when every one of them is zero,
// so an explicit zero margin survives next to a configured separation.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Direction == "" {
		c.Direction = d.Direction
	}
	if c.Ranker == "" {
		c.Ranker = d.Ranker
	}
	if c.NodeWidth == 0 {
		c.NodeWidth = d.NodeWidth
	}
	if c.NodeHeight == 0 {
		c.NodeHeight = d.NodeHeight
	}
	if c.MarginX == 0 && c.MarginY == 0 && c.NodeSep == 0 && c.RankSep == 0 {
		c.MarginX, c.MarginY = d.MarginX, d.MarginY
		c.NodeSep, c.RankSep = d.NodeSep, d.RankSep
	}
	return c
}

// Validate checks that the configuration can be handed to an engine.
func (c Config) Validate() error {
	switch c.Direction {
	case DirectionLR, DirectionRL, DirectionTB, DirectionBT:
	default:
		return fmt.Errorf("%w: %q (must be one of: LR, RL, TB, BT)", ErrInvalidDirection, c.Direction)
	}
	if c.Ranker != RankerNetworkSimplex {
		return fmt.Errorf("%w: %q", ErrUnsupportedRanker, c.Ranker)
	}
	if c.NodeWidth <= 0 || c.NodeHeight <= 0 {
		return ErrInvalidNodeSize
	}
	if c.MarginX < 0 || c.MarginY < 0 || c.NodeSep < 0 || c.RankSep < 0 {
		return ErrNegativeSpacing
	}
	return nil
}
