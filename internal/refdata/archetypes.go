package refdata

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/resolver"
)

// kindTable is one parsed archetype CSV: profile ids in file order plus
// the per-id attribute maps.
type kindTable struct {
	ids  []string
	rows map[string]resolver.Archetype
}

// loadKindTable parses <dir>/archetypes/<kind>.csv. The first column
// must be "id"; remaining columns name attributes, namespaced with dots
// for device kinds ("processor.core_units") and bare for component
// kinds. Numeric cells are "value" or "value;min;max"; anything that
// does not parse as a number is a categorical value. Empty cells mean
// the profile has no opinion on that attribute.
func loadKindTable(dir, kind string) (*kindTable, error) {
	path := filepath.Join(dir, "archetypes", kind+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open archetypes for %q", kind)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read archetype header for %q", kind)
	}
	if len(header) == 0 || strings.TrimSpace(header[0]) != "id" {
		return nil, eris.Errorf("refdata: archetype table %q must start with an id column", kind)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &kindTable{rows: make(map[string]resolver.Archetype)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: read archetypes for %q", kind)
		}
		id := strings.TrimSpace(record[0])
		if id == "" {
			continue
		}
		arch := resolver.Archetype{}
		for i := 1; i < len(record) && i < len(header); i++ {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			value, err := parseCell(cell)
			if err != nil {
				return nil, eris.Wrapf(err, "refdata: archetype %s/%s column %q", kind, id, header[i])
			}
			arch[header[i]] = value
		}
		table.ids = append(table.ids, id)
		table.rows[id] = arch
	}
	return table, nil
}

// parseCell interprets one CSV cell as either a numeric value with
// optional explicit bounds or a categorical string.
func parseCell(cell string) (resolver.ArchetypeValue, error) {
	parts := strings.Split(cell, ";")
	switch len(parts) {
	case 1:
		if n, err := strconv.ParseFloat(parts[0], 64); err == nil {
			return resolver.ArchetypeValue{Num: &n}, nil
		}
		return resolver.ArchetypeValue{Text: parts[0]}, nil
	case 3:
		nums := make([]float64, 3)
		for i, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return resolver.ArchetypeValue{}, eris.Errorf("bounded cell %q is not numeric", cell)
			}
			nums[i] = n
		}
		return resolver.ArchetypeValue{Num: &nums[0], Min: &nums[1], Max: &nums[2]}, nil
	default:
		return resolver.ArchetypeValue{}, eris.Errorf("cell %q must have one or three fields", cell)
	}
}
