package sim

import (
	"math"

	"github.com/matzehuels/intelgraph/pkg/errors"
)

// Params holds the physical constants of a simulation run.
// All forces are applied per tick with an implicit unit time step.
type Params struct {
	SpringK         float64 `koanf:"spring_k" toml:"spring_k"`
	RestLength      float64 `koanf:"rest_length" toml:"rest_length"`
	Repulsion       float64 `koanf:"repulsion" toml:"repulsion"`
	Damping         float64 `koanf:"damping" toml:"damping"`
	MinSeparation   float64 `koanf:"min_separation" toml:"min_separation"`
	CollisionMargin float64 `koanf:"collision_margin" toml:"collision_margin"`
	CenterPull      float64 `koanf:"center_pull" toml:"center_pull"`
	Width           float64 `koanf:"width" toml:"width"`
	Height          float64 `koanf:"height" toml:"height"`
	Jitter          float64 `koanf:"jitter" toml:"jitter"`
}

// Default physical constants.
const (
	DefaultSpringK         = 0.04
	DefaultRestLength      = 120.0
	DefaultRepulsion       = 12000.0
	DefaultDamping         = 0.8
	DefaultMinSeparation   = 150.0
	DefaultCollisionMargin = 20.0
	DefaultCenterPull      = 0.005
	DefaultWidth           = 800.0
	DefaultHeight          = 600.0
	DefaultJitter          = 200.0
)

// DefaultParams returns the tuned constants used when nothing is configured.
func DefaultParams() Params {
	return Params{
		SpringK:         DefaultSpringK,
		RestLength:      DefaultRestLength,
		Repulsion:       DefaultRepulsion,
		Damping:         DefaultDamping,
		MinSeparation:   DefaultMinSeparation,
		CollisionMargin: DefaultCollisionMargin,
		CenterPull:      DefaultCenterPull,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Jitter:          DefaultJitter,
	}
}

// Validate checks that the constants describe a stable simulation.
// Damping must lie in [0, 1), the frame must be positive and no constant
// may be negative or non-finite.
func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"spring_k", p.SpringK},
		{"rest_length", p.RestLength},
		{"repulsion", p.Repulsion},
		{"damping", p.Damping},
		{"min_separation", p.MinSeparation},
		{"collision_margin", p.CollisionMargin},
		{"center_pull", p.CenterPull},
		{"width", p.Width},
		{"height", p.Height},
		{"jitter", p.Jitter},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be finite", f.name)
		}
		if f.v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative (got %g)", f.name, f.v)
		}
	}
	if p.Damping >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "damping must be below 1 (got %g)", p.Damping)
	}
	if p.Width == 0 || p.Height == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport must be positive (got %gx%g)", p.Width, p.Height)
	}
	return nil
}

// center returns the gravity target.
func (p Params) center() (float64, float64) {
	return p.Width / 2, p.Height / 2
}
