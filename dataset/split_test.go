package dataset

import (
	"testing"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

func TestSplit(t *testing.T) {
	table, err := LoadCSV(writeCSV(t, penguinCSV), PenguinSchema())
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	defer table.Release()
	cleaned := DropNulls(table)
	defer cleaned.Release()

	features, labels, err := Split(cleaned, PenguinFeatures(), PenguinLabels())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	defer features.Release()
	defer labels.Release()

	if features.NumRows() != 6 || features.NumCols() != 4 {
		t.Errorf("features shape = (%d, %d), want (6, 4)", features.NumRows(), features.NumCols())
	}
	if labels.NumRows() != 6 || labels.NumCols() != 1 {
		t.Errorf("labels shape = (%d, %d), want (6, 1)", labels.NumRows(), labels.NumCols())
	}
	for i, name := range PenguinFeatures() {
		if features.Names()[i] != name {
			t.Errorf("feature %d = %s, want %s", i, features.Names()[i], name)
		}
	}
	if v, _ := features.Float(3, 0); v != 36.7 {
		t.Errorf("features[3][0] = %v, want 36.7", v)
	}
}

func TestSplit_ColumnOrderFollowsRequest(t *testing.T) {
	table, err := FromRows(Schema{{Name: "a", Type: Float64}, {Name: "b", Type: Float64}, {Name: "y", Type: Text}},
		[][]any{{1.0, 2.0, "p"}, {3.0, 4.0, "q"}})
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	defer table.Release()

	features, labels, err := Split(table, []string{"b", "a"}, []string{"y"})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	defer features.Release()
	defer labels.Release()

	if v, _ := features.Float(1, 0); v != 4 {
		t.Errorf("features[1][0] = %v, want 4", v)
	}
	if v, _ := features.Float(1, 1); v != 3 {
		t.Errorf("features[1][1] = %v, want 3", v)
	}
}

func TestSplit_Errors(t *testing.T) {
	table, err := FromRows(Schema{{Name: "a", Type: Float64}, {Name: "y", Type: Text}}, [][]any{{1.0, "p"}})
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	defer table.Release()

	tests := []struct {
		name     string
		features []string
		labels   []string
		check    func(error) bool
	}{
		{
			name:     "unknown feature",
			features: []string{"nope"},
			labels:   []string{"y"},
			check: func(err error) bool {
				var e *errors.ColumnNotFoundError
				return errors.As(err, &e) && e.Column == "nope"
			},
		},
		{
			name:     "unknown label",
			features: []string{"a"},
			labels:   []string{"species"},
			check: func(err error) bool {
				var e *errors.ColumnNotFoundError
				return errors.As(err, &e) && e.Column == "species"
			},
		},
		{
			name:     "overlap",
			features: []string{"a", "y"},
			labels:   []string{"y"},
			check: func(err error) bool {
				var e *errors.ValidationError
				return errors.As(err, &e)
			},
		},
		{
			name:     "duplicate feature",
			features: []string{"a", "a"},
			labels:   []string{"y"},
			check: func(err error) bool {
				var e *errors.ValidationError
				return errors.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(table, tt.features, tt.labels)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSelect_Missing(t *testing.T) {
	table, _ := FromRows(Schema{{Name: "a", Type: Float64}}, [][]any{{1.0}})
	defer table.Release()
	if _, err := Select(table, []string{"b"}); err == nil {
		t.Error("expected ColumnNotFoundError")
	}
}
