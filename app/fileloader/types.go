package fileloader

import "fmt"

// Package fileloader decodes raw file bytes (CSV text, XLSX binary, or flat
// JSON arrays) into the rectangular Grid consumed by the rest of the import
// pipeline. It handles format detection, compressed inputs, header row
// detection, and header normalization so downstream stages are format-agnostic.

// Format represents the declared or detected type of an input file.
type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatXLSX
	FormatJSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatXLSX:
		return "XLSX"
	case FormatJSON:
		return "JSON"
	case FormatAuto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// HeaderMode controls whether the first row is treated as a header.
type HeaderMode int

const (
	// HeaderAuto applies the detection heuristic in DetectHeaderRow.
	HeaderAuto HeaderMode = iota
	// HeaderForce always treats the first row as a header.
	HeaderForce
	// HeaderNone always treats the first row as data.
	HeaderNone
)

// Options contains parsing options for a single file.
type Options struct {
	// HeaderMode overrides header row detection. Default is HeaderAuto.
	HeaderMode HeaderMode

	// MaxBytes is the byte ceiling for input data; inputs above it fail
	// fast with ErrFileTooLarge. Zero means DefaultMaxBytes. The ceiling
	// is applied to decompressed data as well, so a small compressed file
	// cannot smuggle an oversized payload into the pipeline.
	MaxBytes int64
}

// DefaultMaxBytes is the default input size ceiling (20 MiB).
const DefaultMaxBytes = 20 * 1024 * 1024

// DefaultOptions returns the default parsing options.
func DefaultOptions() Options {
	return Options{HeaderMode: HeaderAuto}
}

// Key returns a unique string key for this options combination, used in
// cache keys so the same bytes parsed under different options never collide.
func (o Options) Key() string {
	mode := "auto"
	switch o.HeaderMode {
	case HeaderForce:
		mode = "header"
	case HeaderNone:
		mode = "noheader"
	}
	return fmt.Sprintf("%s::%d", mode, o.maxBytes())
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxBytes
}

// ParseError reports an unreadable or corrupt input file. It is fatal to the
// import session: no partial grid is produced.
type ParseError struct {
	Format Format
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileTooLargeError is returned when input data exceeds the configured byte
// ceiling. Oversized files never enter the pipeline.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}
