// Package config loads the pipeline settings from YAML.
//
// The dataset itself is not shipped. Download the Palmer Penguins CSV with a
// leading row-id column, for example
// https://vincentarelbundock.github.io/Rdatasets/csv/palmerpenguins/penguins.csv,
// and save it as DefaultDataPath or point data_path (or -data) at it.
// Columns are matched by position, so the header names may differ.
package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/YuminosukeSato/penguinml/dataset"
	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// DefaultDataPath is where the example programs look for the dataset,
// relative to the working directory. Nothing ships at this path.
const DefaultDataPath = "data/palmerpenguins.csv"

// Column declares one schema field.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Config holds every setting of a pipeline run.
type Config struct {
	DataPath string   `yaml:"data_path"`
	Schema   []Column `yaml:"schema"`
	Features []string `yaml:"features"`
	Labels   []string `yaml:"labels"`

	Split struct {
		TestSize    float64 `yaml:"test_size"`
		Shuffle     bool    `yaml:"shuffle"`
		Stratify    bool    `yaml:"stratify"`
		RandomState uint64  `yaml:"random_state"`
	} `yaml:"split"`

	Model struct {
		Scaler      string  `yaml:"scaler"`
		C           float64 `yaml:"c"`
		MaxIter     int     `yaml:"max_iter"`
		Tol         float64 `yaml:"tol"`
		MultiClass  string  `yaml:"multi_class"`
		RandomState int64   `yaml:"random_state"`
	} `yaml:"model"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the Palmer Penguins configuration.
func Default() *Config {
	cfg := &Config{
		DataPath: DefaultDataPath,
		Features: dataset.PenguinFeatures(),
		Labels:   dataset.PenguinLabels(),
	}
	for _, f := range dataset.PenguinSchema() {
		cfg.Schema = append(cfg.Schema, Column{Name: f.Name, Type: f.Type.String()})
	}
	cfg.Split.TestSize = 0.3
	cfg.Split.Shuffle = true
	cfg.Split.RandomState = 42
	cfg.Model.Scaler = "standard"
	cfg.Model.C = 1.0
	cfg.Model.MaxIter = 1000
	cfg.Model.Tol = 1e-4
	cfg.Model.MultiClass = "multinomial"
	cfg.Model.RandomState = 42
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path over the defaults: keys missing from the file keep their
// default value. A list in the file replaces the default list.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("config.Load", path, err)
	}
	cfg := Default()
	cfg.Schema, cfg.Features, cfg.Labels = nil, nil, nil
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.NewParseError("config.Load", 0, err)
	}

	def := Default()
	if cfg.Schema == nil {
		cfg.Schema = def.Schema
	}
	if cfg.Features == nil {
		cfg.Features = def.Features
	}
	if cfg.Labels == nil {
		cfg.Labels = def.Labels
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks ranges and that every feature and label is a schema
// column.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return errors.NewValidationError("data_path", "must not be empty", c.DataPath)
	}
	schema, err := c.DatasetSchema()
	if err != nil {
		return err
	}
	if len(c.Features) == 0 {
		return errors.NewValidationError("features", "must list at least one column", c.Features)
	}
	if len(c.Labels) == 0 {
		return errors.NewValidationError("labels", "must list at least one column", c.Labels)
	}
	for _, name := range append(append([]string(nil), c.Features...), c.Labels...) {
		if schema.Index(name) < 0 {
			return errors.NewColumnNotFoundError("config.Validate", name, schema.Names())
		}
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return errors.NewValidationError("split.test_size", "must be in (0, 1)", c.Split.TestSize)
	}
	if c.Model.C <= 0 {
		return errors.NewValidationError("model.c", "must be positive", c.Model.C)
	}
	if c.Model.MaxIter < 1 {
		return errors.NewValidationError("model.max_iter", "must be at least 1", c.Model.MaxIter)
	}
	switch c.Model.MultiClass {
	case "auto", "ovr", "multinomial":
	default:
		return errors.NewValidationError("model.multi_class", "must be auto, ovr or multinomial", c.Model.MultiClass)
	}
	switch c.Model.Scaler {
	case "standard", "minmax", "none":
	default:
		return errors.NewValidationError("model.scaler", "must be standard, minmax or none", c.Model.Scaler)
	}
	return nil
}

// DatasetSchema converts the schema section.
func (c *Config) DatasetSchema() (dataset.Schema, error) {
	if len(c.Schema) == 0 {
		return nil, errors.NewValidationError("schema", "must declare at least one column", c.Schema)
	}
	fields := make([]dataset.Field, len(c.Schema))
	for i, col := range c.Schema {
		typ, err := dataset.ParseColumnType(col.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "schema column %q", col.Name)
		}
		fields[i] = dataset.Field{Name: col.Name, Type: typ}
	}
	return dataset.NewSchema(fields...)
}

// Resolve returns Load(path), or Default when path is empty, then applies a
// non-empty dataPath over data_path. It is the flag handling shared by the
// example programs.
func Resolve(path, dataPath string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	return cfg, nil
}
