package dataset

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
	"github.com/YuminosukeSato/penguinml/pkg/log"
)

// DefaultNullValues are the cell contents read as null. Other non-finite
// spellings ("nan", "inf", "Infinity") parse as floats and are then stored
// as null with a DataConversionWarning.
var DefaultNullValues = []string{"", "NA", "NaN"}

const readChunkRows = 4096

// malformedCell fills the fields of a row that is stored as all null.
const malformedCell = "?"

type loadConfig struct {
	mem        memory.Allocator
	nullValues []string
	comma      rune
}

// LoadOption configures LoadCSV and ReadCSV.
type LoadOption func(*loadConfig)

// WithAllocator sets the Arrow allocator for the table's arrays.
func WithAllocator(mem memory.Allocator) LoadOption {
	return func(c *loadConfig) {
		c.mem = mem
	}
}

// WithNullValues replaces DefaultNullValues.
func WithNullValues(values ...string) LoadOption {
	return func(c *loadConfig) {
		c.nullValues = values
	}
}

// WithComma sets the field delimiter.
func WithComma(r rune) LoadOption {
	return func(c *loadConfig) {
		c.comma = r
	}
}

// LoadCSV opens path and reads it with ReadCSV. A file that cannot be
// opened yields an *errors.IOError wrapping the OS error.
func LoadCSV(path string, schema Schema, opts ...LoadOption) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("dataset.LoadCSV", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f, schema, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	log.GetLoggerWithName("dataset").Info("Loaded dataset",
		log.PathKey, path,
		log.SamplesKey, t.NumRows(),
		log.ColumnsKey, t.NumCols(),
	)
	return t, nil
}

// ReadCSV decodes comma separated text with one header row into a Table.
// Columns are matched to schema by position, not by header name.
//
// Cells listed in the null values become null. A Float64 cell that does not
// parse to a finite number also becomes null and raises a
// DataConversionWarning. A row that is malformed as a whole, with the wrong
// number of fields or broken quoting, is kept as an all-null row with a
// warning. The cleaner drops both later. Only a header that cannot be read,
// or that disagrees with the schema's width, is fatal and returned as an
// *errors.ParseError.
func ReadCSV(r io.Reader, schema Schema, opts ...LoadOption) (t *Table, err error) {
	defer errors.Recover(&err, "dataset.ReadCSV")

	if err := schema.Validate(); err != nil {
		return nil, err
	}
	cfg := loadConfig{
		mem:        memory.DefaultAllocator,
		nullValues: DefaultNullValues,
		comma:      ',',
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	normalized, malformed, err := normalizeRecords(r, cfg.comma, len(schema))
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(normalized, schema.csvSchema(),
		csv.WithHeader(true),
		csv.WithChunk(readChunkRows),
		csv.WithComma(cfg.comma),
		csv.WithLazyQuotes(true),
		csv.WithAllocator(cfg.mem),
		csv.WithNullReader(true, cfg.nullValues...),
	)
	defer reader.Release()

	builders := make([]*columnBuilder, len(schema))
	for i, f := range schema {
		builders[i] = newColumnBuilder(cfg.mem, f.Type, readChunkRows)
	}
	discard := func() {
		for _, b := range builders {
			b.release()
		}
	}

	rows, coerced := 0, 0
	for reader.Next() {
		rec := reader.Record()
		for c := range schema {
			if _, ok := rec.Column(c).(*array.String); !ok {
				discard()
				return nil, errors.NewTypeMismatchError("dataset.ReadCSV", schema[c].Name, "utf8", rec.Column(c).DataType().String())
			}
		}
		for i := 0; i < int(rec.NumRows()); i++ {
			if _, bad := malformed[rows+i]; bad {
				for _, b := range builders {
					b.appendNull()
				}
				continue
			}
			for c := range schema {
				col := rec.Column(c).(*array.String)
				if col.IsNull(i) {
					builders[c].appendNull()
					continue
				}
				raw := col.Value(i)
				if schema[c].Type == Text {
					builders[c].appendText(raw)
					continue
				}
				v, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
					builders[c].appendNull()
					coerced++
					errors.Warn(errors.NewDataConversionWarning(Text.String(), "null",
						fmt.Sprintf("column %q row %d: %q is not a finite float64", schema[c].Name, rows+i, raw)))
					continue
				}
				builders[c].appendFloat(v)
			}
		}
		rows += int(rec.NumRows())
	}
	if rerr := reader.Err(); rerr != nil {
		discard()
		return nil, errors.NewParseError("dataset.ReadCSV", parseErrorLine(rerr), rerr)
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.finish()
	}

	if coerced > 0 || len(malformed) > 0 {
		log.GetLoggerWithName("dataset").Debug("Coerced unparseable input to null",
			log.NullCellsKey, coerced,
			log.MalformedRowsKey, len(malformed),
		)
	}
	return newTable(schema, arrays)
}

// normalizeRecords re-encodes the CSV in r so every data record has exactly
// ncols fields, which is what the Arrow reader requires. It reads leniently:
// stray quotes are taken literally and a record of the wrong width, or one
// the CSV parser rejects, is replaced by a placeholder row. The returned set
// holds the data row indexes of those placeholders.
func normalizeRecords(r io.Reader, comma rune, ncols int) (io.Reader, map[int]struct{}, error) {
	in := stdcsv.NewReader(r)
	in.Comma = comma
	in.FieldsPerRecord = -1
	in.LazyQuotes = true
	in.ReuseRecord = true

	var buf bytes.Buffer
	out := stdcsv.NewWriter(&buf)
	out.Comma = comma
	write := func(rec []string) {
		if len(rec) == 1 && rec[0] == "" {
			// a lone empty field prints as a blank line, which readers skip
			out.Flush()
			buf.WriteString("\"\"\n")
			return
		}
		_ = out.Write(rec)
	}

	header, err := in.Read()
	if err == io.EOF {
		return &buf, nil, nil
	}
	if err != nil {
		return nil, nil, errors.NewParseError("dataset.ReadCSV", parseErrorLine(err), err)
	}
	if len(header) != ncols {
		return nil, nil, errors.NewParseError("dataset.ReadCSV", 1,
			errors.Newf("header has %d fields, schema declares %d", len(header), ncols))
	}
	write(header)

	placeholder := make([]string, ncols)
	for i := range placeholder {
		placeholder[i] = malformedCell
	}
	malformed := make(map[int]struct{})
	for row := 0; ; row++ {
		rec, err := in.Read()
		if err == io.EOF {
			break
		}

		var reason string
		var csvErr *stdcsv.ParseError
		switch {
		case err == nil && len(rec) == ncols:
			write(rec)
			continue
		case err == nil:
			line, _ := in.FieldPos(0)
			reason = fmt.Sprintf("line %d: %d fields, want %d", line, len(rec), ncols)
		case errors.As(err, &csvErr):
			reason = fmt.Sprintf("line %d: %v", csvErr.Line, csvErr.Err)
		default:
			return nil, nil, errors.NewParseError("dataset.ReadCSV", 0, err)
		}
		malformed[row] = struct{}{}
		errors.Warn(errors.NewDataConversionWarning("record", "null",
			fmt.Sprintf("row %d (%s) stored as null", row, reason)))
		write(placeholder)
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return nil, nil, errors.NewParseError("dataset.ReadCSV", 0, err)
	}
	return &buf, malformed, nil
}

// parseErrorLine returns the input line of a CSV parse error, or 0.
func parseErrorLine(err error) int {
	var csvErr *stdcsv.ParseError
	if errors.As(err, &csvErr) {
		return csvErr.Line
	}
	return 0
}
