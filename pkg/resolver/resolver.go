// Package resolver maps a geometry feature's display name to the backend
// record for that country.
package resolver

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vanderheijden86/pandemap/pkg/model"
)

// aliases maps a canonical name to the other names the same country goes
// by. Keys and values are stored normalised.
var aliases = map[string][]string{
	"united states":                         {"usa", "united states of america", "us", "u.s.a.", "u.s.a"},
	"united kingdom":                        {"uk", "great britain", "britain", "u.k.", "u.k"},
	"russian federation":                    {"russia"},
	"czech republic":                        {"czechia"},
	"republic of korea":                     {"south korea", "korea"},
	"democratic people's republic of korea": {"north korea"},
	"iran":                                  {"iran (islamic republic of)"},
	"vietnam":                               {"viet nam"},
	"brunei":                                {"brunei darussalam"},
	"congo":                                 {"republic of the congo"},
	"democratic republic of the congo":      {"drc", "congo (kinshasa)"},
	"laos":                                  {"lao people's democratic republic"},
	"syria":                                 {"syrian arab republic"},
	"tanzania":                              {"united republic of tanzania"},
	"uae":                                   {"united arab emirates"},
	"venezuela":                             {"bolivarian republic of venezuela"},
}

// groups is the alias table keyed by compacted name: every name of a
// country maps to the compacted canonical name.
var groups = buildGroups()

func buildGroups() map[string]string {
	g := make(map[string]string)
	for canonical, names := range aliases {
		key := compact(canonical)
		g[key] = key
		for _, n := range names {
			g[compact(n)] = key
		}
	}
	return g
}

// DataNotFoundError reports that no record matched a display name. It is
// logged, never shown to the user.
type DataNotFoundError struct {
	Name string
	Date string
}

func (e *DataNotFoundError) Error() string {
	if e.Date == "" {
		return fmt.Sprintf("no data for %q", e.Name)
	}
	return fmt.Sprintf("no data for %q on %s", e.Name, e.Date)
}

// Normalize lowercases and trims a name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// compact normalises name and drops everything but letters and digits, so
// "U.S.A." and "usa" compare equal.
func compact(name string) string {
	var b strings.Builder
	for _, r := range Normalize(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical returns the canonical compacted key for name, or the compacted
// name itself when it is not in the alias table.
func Canonical(name string) string {
	key := compact(name)
	if c, ok := groups[key]; ok {
		return c
	}
	return key
}

// Resolve finds the record in ds for the display name. An exact normalised
// match wins; otherwise a record matches when it and name belong to the
// same alias group. The first match in dataset order is returned.
func Resolve(name string, ds *model.MapDataset) (model.CountryRecord, bool) {
	if ds == nil {
		return model.CountryRecord{}, false
	}
	query := Normalize(name)
	if query == "" {
		return model.CountryRecord{}, false
	}
	for _, rec := range ds.Countries {
		if Normalize(rec.Country) == query {
			return rec, true
		}
	}

	group, ok := groups[compact(query)]
	if !ok {
		return model.CountryRecord{}, false
	}
	for _, rec := range ds.Countries {
		if groups[compact(rec.Country)] == group {
			return rec, true
		}
	}
	return model.CountryRecord{}, false
}

// Lookup is Resolve returning a *DataNotFoundError on a miss.
func Lookup(name string, ds *model.MapDataset) (model.CountryRecord, error) {
	if rec, ok := Resolve(name, ds); ok {
		return rec, nil
	}
	e := &DataNotFoundError{Name: name}
	if ds != nil {
		e.Date = ds.Date
	}
	return model.CountryRecord{}, e
}
