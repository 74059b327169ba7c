package fileloader

import (
	"fmt"
	"sort"

	"github.com/ohler55/ojg/oj"

	"contactimport/app/interfaces"
)

// JSON decoding for the import pipeline. A flat array of objects maps to a
// grid: the union of object keys becomes the header (sorted for determinism)
// and each object becomes one row. The surrounding application exports
// contact lists as JSON, so imports accept the same shape.

// parseJSONGrid converts a flat JSON array of objects into a Grid. JSON
// input always has named columns, so HeaderMode is ignored and HasHeaderRow
// is reported as true.
func parseJSONGrid(data []byte, opts Options) (*interfaces.Grid, error) {
	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, &ParseError{Format: FormatJSON, Reason: "malformed JSON", Err: err}
	}

	list, ok := parsed.([]any)
	if !ok {
		return nil, &ParseError{Format: FormatJSON, Reason: "expected a flat array of objects"}
	}

	// First pass: collect the union of keys across all objects.
	keySet := make(map[string]bool)
	objects := make([]map[string]any, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ParseError{
				Format: FormatJSON,
				Reason: fmt.Sprintf("element %d is not an object", i),
			}
		}
		for k := range obj {
			keySet[k] = true
		}
		objects = append(objects, obj)
	}

	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	grid := &interfaces.Grid{
		Header:       NormalizeHeaders(header),
		Rows:         make([][]string, len(objects)),
		RawWidths:    make([]int, len(objects)),
		HasHeaderRow: true,
	}

	for i, obj := range objects {
		row := make([]string, len(header))
		for j, key := range header {
			if v, present := obj[key]; present && v != nil {
				row[j] = stringifyJSONValue(v)
			}
		}
		grid.Rows[i] = row
		grid.RawWidths[i] = len(row)
	}

	return grid, nil
}

// stringifyJSONValue renders a JSON scalar as the cell string the rest of
// the pipeline expects. Nested structures are re-encoded compactly so the
// value at least survives into the notes/unknown column.
func stringifyJSONValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		// Render integral floats without the trailing .0 that would
		// confuse phone and zip validators downstream.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return oj.JSON(v)
	}
}
