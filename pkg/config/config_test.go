package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/penguinml/dataset"
	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	schema, err := cfg.DatasetSchema()
	if err != nil {
		t.Fatalf("DatasetSchema() error = %v", err)
	}
	want := dataset.PenguinSchema()
	for i := range want {
		if schema[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, schema[i], want[i])
		}
	}
	if cfg.Split.TestSize != 0.3 {
		t.Errorf("TestSize = %v, want 0.3", cfg.Split.TestSize)
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := writeFile(t, `
data_path: /tmp/penguins.csv
features: [bill_length_mm, flipper_length_mm]
split:
  test_size: 0.25
model:
  c: 10
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataPath != "/tmp/penguins.csv" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if len(cfg.Features) != 2 || cfg.Features[1] != "flipper_length_mm" {
		t.Errorf("Features = %v", cfg.Features)
	}
	if cfg.Labels[0] != "species" {
		t.Errorf("Labels = %v, want default [species]", cfg.Labels)
	}
	if cfg.Split.TestSize != 0.25 || !cfg.Split.Shuffle {
		t.Errorf("Split = %+v, want test_size 0.25 with default shuffle", cfg.Split)
	}
	if cfg.Model.C != 10 || cfg.Model.MaxIter != 1000 {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(error) bool
	}{
		{
			name: "unknown key",
			yaml: "data_pth: x.csv\n",
			check: func(err error) bool {
				var e *errors.ParseError
				return errors.As(err, &e)
			},
		},
		{
			name: "test size out of range",
			yaml: "split:\n  test_size: 1.5\n",
			check: func(err error) bool {
				var e *errors.ValidationError
				return errors.As(err, &e)
			},
		},
		{
			name: "feature outside schema",
			yaml: "features: [beak_colour]\n",
			check: func(err error) bool {
				var e *errors.ColumnNotFoundError
				return errors.As(err, &e)
			},
		},
		{
			name: "bad column type",
			yaml: "schema:\n  - {name: species, type: int}\n",
			check: func(err error) bool {
				var e *errors.ValidationError
				return errors.As(err, &e)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		var e *errors.IOError
		if !errors.As(err, &e) {
			t.Fatalf("expected IOError, got %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve("", "other.csv")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.DataPath != "other.csv" || cfg.Model.MultiClass != "multinomial" {
		t.Errorf("Resolve() = %+v", cfg)
	}

	cfg, err = Resolve(writeFile(t, "data_path: a.csv\n"), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.DataPath != "a.csv" {
		t.Errorf("DataPath = %q, want a.csv", cfg.DataPath)
	}
}
