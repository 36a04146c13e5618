package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output document format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatExcel Format = "xlsx"
)

// ErrUnknownFormat reports an output path whose extension has no writer.
var ErrUnknownFormat = errors.New("unknown export format")

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: %q (use .json or .xlsx)", ErrUnknownFormat, filepath.Ext(path))
	}
}
