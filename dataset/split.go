package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// Select projects t onto names, in the order given. The result shares
// t's arrays.
func Select(t *Table, names []string) (*Table, error) {
	schema := make(Schema, len(names))
	cols := make([]arrow.Array, len(names))
	for i, name := range names {
		c := t.schema.Index(name)
		if c < 0 {
			return nil, errors.NewColumnNotFoundError("dataset.Select", name, t.Names())
		}
		schema[i] = t.schema[c]
		cols[i] = t.columns[c]
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return t.shared(schema, cols), nil
}

// Split partitions t into a feature table and a label table. Both keep t's
// row count and order, with columns in the requested order.
//
// Every name must exist in t. A column may not appear twice in one list or
// in both lists.
func Split(t *Table, features, labels []string) (featureTable, labelTable *Table, err error) {
	for _, name := range append(append([]string(nil), features...), labels...) {
		if t.schema.Index(name) < 0 {
			return nil, nil, errors.NewColumnNotFoundError("dataset.Split", name, t.Names())
		}
	}
	if err := checkDisjoint(features, labels); err != nil {
		return nil, nil, err
	}

	featureTable, err = Select(t, features)
	if err != nil {
		return nil, nil, err
	}
	labelTable, err = Select(t, labels)
	if err != nil {
		featureTable.Release()
		return nil, nil, err
	}
	return featureTable, labelTable, nil
}

func checkDisjoint(features, labels []string) error {
	seen := make(map[string]struct{}, len(features))
	for _, name := range features {
		if _, dup := seen[name]; dup {
			return errors.NewValidationError("features", "column listed twice", name)
		}
		seen[name] = struct{}{}
	}
	inLabels := make(map[string]struct{}, len(labels))
	for _, name := range labels {
		if _, dup := inLabels[name]; dup {
			return errors.NewValidationError("labels", "column listed twice", name)
		}
		if _, overlap := seen[name]; overlap {
			return errors.NewValidationError("labels", "column is also selected as a feature", name)
		}
		inLabels[name] = struct{}{}
	}
	return nil
}
