package schema

import "fmt"

// Project intersects a file's header row with the canonical schema for the
// target table and returns the resulting Projection.
//
// header carries the raw header cells as read from the file; each is passed
// through NormalizeHeader before matching. Matching is exact string equality
// on the normalized name against the canonical column name and its aliases;
// there is no fuzzy matching. When the same canonical column is named by more
// than one header cell, the first (leftmost) occurrence wins.
//
// If zero canonical columns are found the file is incompatible with the
// schema and ErrNoColumnsMatched is returned.
func Project(header []string, t Table) (Projection, error) {
	// normalized header name -> leftmost source index
	byName := make(map[string]int, len(header))
	for i, raw := range header {
		name := NormalizeHeader(raw)
		if name == "" {
			continue
		}
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}

	p := Projection{Table: t, Src: make([]int, len(t.Columns))}
	for i, col := range t.Columns {
		p.Src[i] = -1
		if ix, ok := byName[col.Name]; ok {
			p.Src[i] = ix
			continue
		}
		for _, alias := range col.Aliases {
			if ix, ok := byName[alias]; ok {
				p.Src[i] = ix
				break
			}
		}
	}

	if p.Matched() == 0 {
		return Projection{}, fmt.Errorf("table %s: %w", t.Name, ErrNoColumnsMatched)
	}
	return p, nil
}
