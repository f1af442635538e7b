package field

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "https://github.com/lao-tseu-is-alive/go-node-field/config.schema.json"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid field config")

// Config holds every tunable of one field instance.
// Durations are expressed in milliseconds in JSON, like the rest of the web-facing knobs.
type Config struct {
	// Population
	BaseDensity  float64 `json:"baseDensity"` // particles per square pixel
	MinParticles int     `json:"minParticles"`
	MaxParticles int     `json:"maxParticles"`

	// Links
	LinkDistance    float64 `json:"linkDistance"`
	MinLinkDistance float64 `json:"minLinkDistance"` // pairs closer than this are not linked
	MinCellSize     float64 `json:"minCellSize"`
	LineAlpha       float64 `json:"lineAlpha"`
	LineWidth       float64 `json:"lineWidth"`

	// Appearance
	NodeRadiusMin   float64 `json:"nodeRadiusMin"`
	NodeRadiusMax   float64 `json:"nodeRadiusMax"`
	HueMin          float64 `json:"hueMin"`
	HueMax          float64 `json:"hueMax"`
	BackgroundAlpha float64 `json:"backgroundAlpha"`

	// Motion
	InitialSpeed    float64 `json:"initialSpeed"`
	TimeScale       float64 `json:"timeScale"` // velocity units per millisecond
	Margin          float64 `json:"margin"`
	DriftAmplitude  float64 `json:"driftAmplitude"`
	JitterAmplitude float64 `json:"jitterAmplitude"`
	Damping         float64 `json:"damping"`

	// Pointer
	PointerInfluence float64 `json:"pointerInfluence"`
	PointerForce     float64 `json:"pointerForce"`
	RepulsionScale   float64 `json:"repulsionScale"`

	// Viewport
	MinWidth  float64 `json:"minWidth"`
	MinHeight float64 `json:"minHeight"`

	// Timing, milliseconds
	MaxStepMs         int `json:"maxStepMs"`
	PointerThrottleMs int `json:"pointerThrottleMs"`
	PointerIdleMs     int `json:"pointerIdleMs"`
	IdleRefreshMs     int `json:"idleRefreshMs"`
	JitterIntervalMs  int `json:"jitterIntervalMs"`

	// ReducedMotion replaces the animation with one still backdrop, repainted on resize.
	ReducedMotion bool `json:"reducedMotion"`
}

// DefaultConfig returns the tuning of the main page backdrop.
func DefaultConfig() *Config {
	return &Config{
		BaseDensity:       0.00006,
		MinParticles:      18,
		MaxParticles:      160,
		LinkDistance:      120,
		MinLinkDistance:   8,
		MinCellSize:       90,
		LineAlpha:         0.9,
		LineWidth:         0.6,
		NodeRadiusMin:     1.0,
		NodeRadiusMax:     2.6,
		HueMin:            150,
		HueMax:            200,
		BackgroundAlpha:   0.08,
		InitialSpeed:      0.6,
		TimeScale:         0.06,
		Margin:            20,
		DriftAmplitude:    0.03,
		JitterAmplitude:   0.06,
		Damping:           0.96,
		PointerInfluence:  92,
		PointerForce:      0.95,
		RepulsionScale:    0.18,
		MinWidth:          300,
		MinHeight:         200,
		MaxStepMs:         40,
		PointerThrottleMs: 16,
		PointerIdleMs:     1200,
		IdleRefreshMs:     800,
		JitterIntervalMs:  1200,
	}
}

// Validate checks the cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	switch {
	case c.MinParticles < 0:
		return fmt.Errorf("%w: minParticles must not be negative, got %d", ErrInvalidConfig, c.MinParticles)
	case c.MaxParticles < c.MinParticles:
		return fmt.Errorf("%w: maxParticles (%d) below minParticles (%d)", ErrInvalidConfig, c.MaxParticles, c.MinParticles)
	case c.BaseDensity < 0:
		return fmt.Errorf("%w: baseDensity must not be negative, got %g", ErrInvalidConfig, c.BaseDensity)
	case c.LinkDistance <= 0:
		return fmt.Errorf("%w: linkDistance must be positive, got %g", ErrInvalidConfig, c.LinkDistance)
	case c.NodeRadiusMax < c.NodeRadiusMin:
		return fmt.Errorf("%w: nodeRadiusMax (%g) below nodeRadiusMin (%g)", ErrInvalidConfig, c.NodeRadiusMax, c.NodeRadiusMin)
	case c.HueMax < c.HueMin:
		return fmt.Errorf("%w: hueMax (%g) below hueMin (%g)", ErrInvalidConfig, c.HueMax, c.HueMin)
	case c.Damping <= 0 || c.Damping >= 1:
		return fmt.Errorf("%w: damping must be in (0,1), got %g", ErrInvalidConfig, c.Damping)
	case c.PointerInfluence <= 0:
		return fmt.Errorf("%w: pointerInfluence must be positive, got %g", ErrInvalidConfig, c.PointerInfluence)
	case c.MinWidth <= 0 || c.MinHeight <= 0:
		return fmt.Errorf("%w: minWidth and minHeight must be positive", ErrInvalidConfig)
	case c.MaxStepMs <= 0:
		return fmt.Errorf("%w: maxStepMs must be positive, got %d", ErrInvalidConfig, c.MaxStepMs)
	case c.IdleRefreshMs <= 0:
		return fmt.Errorf("%w: idleRefreshMs must be positive, got %d", ErrInvalidConfig, c.IdleRefreshMs)
	}
	return nil
}

// CellSize is the grid cell edge: never smaller than the link distance, so a
// 3x3 block always covers every possible link.
func (c *Config) CellSize() float64 {
	return max(c.MinCellSize, c.LinkDistance)
}

func (c *Config) maxStep() time.Duration { return ms(c.MaxStepMs) }

func (c *Config) pointerThrottle() time.Duration { return ms(c.PointerThrottleMs) }

func (c *Config) pointerIdle() time.Duration { return ms(c.PointerIdleMs) }

func (c *Config) idleRefresh() time.Duration { return ms(c.IdleRefreshMs) }

func (c *Config) jitterInterval() time.Duration { return ms(c.JitterIntervalMs) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// LoadConfig loads a JSON configuration file, validates it against the embedded
// schema and overlays it on DefaultConfig, so a file may carry only the knobs it changes.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
