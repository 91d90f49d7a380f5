// Package geo builds and serves the neighborhood reference index for the
// Valle de Aburrá: an immutable mapping from barrio names to their owning
// administrative district (comuna or municipality), plus case-insensitive
// mention counting over free text.
//
// The index is built once per process from the combos reference CSV and is
// read-only thereafter; the Provider supports atomic replacement when the
// reference file changes on disk.
package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Entry is one barrio row of the reference data.
type Entry struct {
	Combo        string `json:"combo,omitempty"`
	Barrio       string `json:"barrio"`
	DistrictName string `json:"district_name"`
	DistrictCode string `json:"district_code"`
}

// District is one administrative unit mentions are rolled up to.
type District struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Municipality string `json:"municipality,omitempty"`
}

// placeholderValues are field contents treated as missing at load time.
var placeholderValues = map[string]struct{}{
	"":     {},
	"none": {},
	"nan":  {},
}

// isPlaceholder reports whether a reference field is empty or a known
// placeholder, checked case-insensitively.
func isPlaceholder(s string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsPlaceholderName reports whether a district or barrio name is empty or a
// known load-time placeholder ("none", "nan"), checked case-insensitively.
func IsPlaceholderName(s string) bool {
	return isPlaceholder(s)
}

// Index is the immutable barrio->district mapping. Build it with NewIndex or
// LoadIndexCSV; never mutate it afterwards.
type Index struct {
	entries   []Entry
	districts []District

	// lowercased lookup keys, precomputed once at build time
	barrioLower   []string
	districtLower []string
	codeByName    map[string]string
}

// NewIndex builds an index from raw entries and a district catalog. Entries
// with placeholder barrio or district values are excluded; barrio names are
// de-duplicated case-insensitively (first occurrence wins).
func NewIndex(entries []Entry, districts []District) *Index {
	if len(districts) == 0 {
		districts = DefaultDistricts()
	}

	codeByName := make(map[string]string, len(districts))
	for _, d := range districts {
		codeByName[strings.ToLower(d.Name)] = d.Code
	}

	seen := make(map[string]struct{}, len(entries))
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Barrio = strings.TrimSpace(e.Barrio)
		e.DistrictName = strings.TrimSpace(e.DistrictName)
		if isPlaceholder(e.Barrio) || isPlaceholder(e.DistrictName) {
			continue
		}
		key := strings.ToLower(e.Barrio)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if e.DistrictCode == "" {
			e.DistrictCode = codeByName[strings.ToLower(e.DistrictName)]
		}
		kept = append(kept, e)
	}

	idx := &Index{
		entries:    kept,
		districts:  districts,
		codeByName: codeByName,
	}
	idx.barrioLower = make([]string, len(kept))
	for i, e := range kept {
		idx.barrioLower[i] = strings.ToLower(e.Barrio)
	}
	idx.districtLower = make([]string, len(districts))
	for i, d := range districts {
		idx.districtLower[i] = strings.ToLower(d.Name)
	}
	return idx
}

// Entries returns the de-duplicated barrio entries.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Districts returns the district catalog.
func (idx *Index) Districts() []District {
	return idx.districts
}

// DistrictCode looks up a district's code by name, case-insensitively.
func (idx *Index) DistrictCode(name string) string {
	return idx.codeByName[strings.ToLower(name)]
}

// CountOccurrences counts non-overlapping case-insensitive occurrences of
// needle in haystack. Zero when either side is empty.
func CountOccurrences(haystack, needle string) int {
	if haystack == "" || needle == "" {
		return 0
	}
	return strings.Count(strings.ToLower(haystack), strings.ToLower(needle))
}

// MentionCounts scans text for every known barrio name and rolls each count
// up to its owning district, then adds direct occurrences of district names
// themselves. The second return value breaks district totals down by barrio
// (direct district hits are recorded under the district's own name).
func (idx *Index) MentionCounts(text string) (map[string]int, map[string]map[string]int) {
	lower := strings.ToLower(text)
	byDistrict := make(map[string]int)
	breakdown := make(map[string]map[string]int)

	add := func(district, barrio string, n int) {
		if n == 0 {
			return
		}
		byDistrict[district] += n
		if breakdown[district] == nil {
			breakdown[district] = make(map[string]int)
		}
		breakdown[district][barrio] += n
	}

	for i, e := range idx.entries {
		add(e.DistrictName, e.Barrio, strings.Count(lower, idx.barrioLower[i]))
	}
	// Direct district-name hits cover districts and satellite municipalities
	// with no barrio-level entries.
	for i, d := range idx.districts {
		add(d.Name, d.Name, strings.Count(lower, idx.districtLower[i]))
	}
	return byDistrict, breakdown
}

// Barrios returns the sorted list of known barrio names.
func (idx *Index) Barrios() []string {
	out := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.Barrio
	}
	sort.Strings(out)
	return out
}

// Combos returns the sorted, de-duplicated list of known combo names.
func (idx *Index) Combos() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range idx.entries {
		if e.Combo == "" {
			continue
		}
		if _, dup := seen[e.Combo]; dup {
			continue
		}
		seen[e.Combo] = struct{}{}
		out = append(out, e.Combo)
	}
	sort.Strings(out)
	return out
}

// csv column indices for the combos reference file
// (header: Combo/Banda;Barrio;Comuna;estructura).
const (
	colCombo = iota
	colBarrio
	colComuna
	colEstructura
)

// LoadIndexCSV reads the ';'-separated combos reference file and builds an
// index against the given district catalog (pass nil for the built-in one).
func LoadIndexCSV(path string, districts []District) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference csv: %w", err)
	}
	defer f.Close()
	return readIndexCSV(f, districts)
}

func readIndexCSV(r io.Reader, districts []District) (*Index, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing reference csv: %w", err)
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 || len(row) <= colComuna {
			// header or malformed row
			continue
		}
		entries = append(entries, Entry{
			Combo:        strings.TrimSpace(row[colCombo]),
			Barrio:       strings.TrimSpace(row[colBarrio]),
			DistrictName: strings.TrimSpace(row[colComuna]),
		})
	}
	return NewIndex(entries, districts), nil
}
