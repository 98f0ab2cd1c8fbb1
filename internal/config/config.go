package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tankdrain/internal/dynamo"
	"github.com/san-kum/tankdrain/internal/physics"
)

const (
	DefaultModel         = "isothermal"
	DefaultHeight        = 1.0
	DefaultDiameter      = 0.3
	DefaultOutlet        = 0.02
	DefaultPressure      = 2e5
	DefaultFillRatio     = 0.8
	DefaultDtFactor      = 0.01
	DefaultFlowThreshold = dynamo.DefaultFlowThreshold
)

// Config is a simulation scenario as stored in YAML. Zero values fall back to
// the defaults, so a file only needs the fields it changes.
type Config struct {
	Model         string          `yaml:"model"`
	Tank          TankConfig      `yaml:"tank"`
	Initial       InitialConfig   `yaml:"initial"`
	Constants     ConstantsConfig `yaml:"constants,omitempty"`
	Dt            float64         `yaml:"dt,omitempty"`
	DtFactor      float64         `yaml:"dt_factor,omitempty"` // 0 picks the caller's default
	FinalTime     float64         `yaml:"final_time,omitempty"`
	FlowThreshold float64         `yaml:"flow_threshold"`
	MaxSteps      int             `yaml:"max_steps,omitempty"`
}

type TankConfig struct {
	Height         float64 `yaml:"height"`
	Diameter       float64 `yaml:"diameter"`
	OutletDiameter float64 `yaml:"outlet_diameter"`
}

type InitialConfig struct {
	Pressure  float64 `yaml:"pressure"`
	Level     float64 `yaml:"level,omitempty"` // m, wins over fill_ratio
	FillRatio float64 `yaml:"fill_ratio,omitempty"`
}

type ConstantsConfig struct {
	G     float64 `yaml:"g,omitempty"`
	Rho   float64 `yaml:"rho,omitempty"`
	Pa    float64 `yaml:"pa,omitempty"`
	Gamma float64 `yaml:"gamma,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: DefaultModel,
		Tank: TankConfig{
			Height:         DefaultHeight,
			Diameter:       DefaultDiameter,
			OutletDiameter: DefaultOutlet,
		},
		Initial: InitialConfig{
			Pressure:  DefaultPressure,
			FillRatio: DefaultFillRatio,
		},
		FlowThreshold: DefaultFlowThreshold,
	}
}

func Load(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) PhysicalConstants() physics.Constants {
	k := physics.DefaultConstants()
	if c.Constants.G != 0 {
		k.G = c.Constants.G
	}
	if c.Constants.Rho != 0 {
		k.Rho = c.Constants.Rho
	}
	if c.Constants.Pa != 0 {
		k.Pa = c.Constants.Pa
	}
	if c.Constants.Gamma != 0 {
		k.Gamma = c.Constants.Gamma
	}
	return k
}

// InitialLevel resolves the starting water height in meters.
func (c *Config) InitialLevel() float64 {
	if c.Initial.Level != 0 {
		return c.Initial.Level
	}
	return c.Initial.FillRatio * c.Tank.Height
}

// BuildModel validates the scenario and binds it into a physics model.
func (c *Config) BuildModel() (*physics.Model, error) {
	law, err := physics.PressureModelByName(c.Model)
	if err != nil {
		return nil, err
	}
	tank, err := physics.NewTank(c.Tank.Height, c.Tank.Diameter, c.Tank.OutletDiameter)
	if err != nil {
		return nil, err
	}
	ic := physics.InitialConditions{P0: c.Initial.Pressure, Z0: c.InitialLevel()}
	return physics.NewModel(tank, ic, law, c.PhysicalConstants())
}

// RunConfig derives the integrator settings; an explicit dt wins over
// dt_factor, which scales the characteristic time H/|F(z0)|. An unset
// dt_factor falls back to DefaultDtFactor.
func (c *Config) RunConfig(m *physics.Model) (dynamo.Config, error) {
	rc := dynamo.DefaultConfig()
	rc.FinalTime = c.FinalTime
	rc.FlowThreshold = c.FlowThreshold
	if c.MaxSteps > 0 {
		rc.MaxSteps = c.MaxSteps
	}

	switch {
	case c.Dt > 0:
		rc.Dt = c.Dt
	default:
		factor := c.DtFactor
		if factor == 0 {
			factor = DefaultDtFactor
		}
		dt, err := m.CharacteristicDt(factor)
		if err != nil {
			return dynamo.Config{}, err
		}
		rc.Dt = dt
	}
	return rc, rc.Validate()
}

func (c *Config) Build() (*physics.Model, dynamo.Config, error) {
	m, err := c.BuildModel()
	if err != nil {
		return nil, dynamo.Config{}, err
	}
	rc, err := c.RunConfig(m)
	if err != nil {
		return nil, dynamo.Config{}, err
	}
	return m, rc, nil
}
