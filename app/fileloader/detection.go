package fileloader

import (
	"bytes"
	"strings"
)

// compressionExtensions maps compression extensions to their CompressionType
var compressionExtensions = map[string]CompressionType{
	".gz":  CompressionGzip,
	".bz2": CompressionBzip2,
	".xz":  CompressionXZ,
}

// xlsxMagic is the ZIP local-file-header signature; XLSX files are ZIP
// containers, so this is the cheapest reliable sniff for spreadsheet binary.
var xlsxMagic = []byte{0x50, 0x4b}

// DetectFormat determines the file format based on the file name extension.
// Compression extensions are stripped first, so "contacts.csv.gz" detects as
// CSV. Unrecognized extensions default to CSV because the overwhelming
// majority of contact exports are comma-separated text.
func DetectFormat(fileName string) Format {
	if fileName == "" {
		return FormatAuto
	}

	lower := strings.ToLower(fileName)
	for ext := range compressionExtensions {
		if strings.HasSuffix(lower, ext) {
			lower = strings.TrimSuffix(lower, ext)
			break
		}
	}

	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return FormatCSV
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return FormatXLSX
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	default:
		return FormatCSV
	}
}

// SniffFormat determines the file format from content when no format was
// declared. XLSX is a ZIP container (PK magic), JSON payloads start with an
// array or object after whitespace, and everything else is treated as CSV.
func SniffFormat(data []byte) Format {
	if bytes.HasPrefix(data, xlsxMagic) {
		return FormatXLSX
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}

	return FormatCSV
}

// ResolveFormat combines a declared format with content sniffing. A concrete
// declared format always wins; FormatAuto falls back to SniffFormat.
func ResolveFormat(declared Format, data []byte) Format {
	if declared != FormatAuto {
		return declared
	}
	return SniffFormat(data)
}
