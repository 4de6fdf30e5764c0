package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/oraterm/internal/render"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Export writes g to path in the given format.
func Export(path, format string, g render.Grid) error {
	switch format {
	case FormatCSV:
		return ExportCSV(path, g)
	case FormatJSON:
		return ExportJSON(path, g)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportCSV writes the header and rows of g to a CSV file at path.
func ExportCSV(path string, g render.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(g.Headers); err != nil {
		return err
	}
	for _, row := range g.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportJSON writes g to path as a JSON array of objects keyed by column
// name. Missing cells are written as empty strings.
func ExportJSON(path string, g render.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	objects := make([]map[string]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		obj := make(map[string]string, len(g.Headers))
		for j, name := range g.Headers {
			if j < len(row) {
				obj[name] = row[j]
			} else {
				obj[name] = ""
			}
		}
		objects = append(objects, obj)
	}

	return enc.Encode(objects)
}

// ExportPath builds dir/<name>_<timestamp>.<format>. Characters that are
// awkward in file names are replaced with underscores.
func ExportPath(dir, name, format string, now time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '.', '/', '\\', ' ', ':', '$', '#':
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "export"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", clean, now.Format("20060102_150405"), format))
}
