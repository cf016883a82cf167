// Package location validates and formats the city/locality pairs buyers and
// vendors pick during onboarding.
package location

import (
	"strings"
	"unicode"
)

// Locality is a neighbourhood inside a city.
type Locality struct {
	ID   string
	Name string
}

// City groups the localities served in one city.
type City struct {
	ID         string
	Name       string
	Localities []Locality
}

// Manager is a read-only catalog of served cities.
type Manager struct {
	cities []City
	byID   map[string]int
}

// NewManager builds a catalog from the given cities. Duplicate ids keep the first entry.
func NewManager(cities []City) *Manager {
	m := &Manager{byID: make(map[string]int, len(cities))}
	for _, c := range cities {
		if _, dup := m.byID[c.ID]; dup {
			continue
		}
		m.byID[c.ID] = len(m.cities)
		m.cities = append(m.cities, c)
	}
	return m
}

// Default returns the catalog of cities currently served.
func Default() *Manager {
	return NewManager(defaultCities)
}

// Cities lists cities in catalog order.
func (m *Manager) Cities() []City {
	out := make([]City, len(m.cities))
	copy(out, m.cities)
	return out
}

// City looks up a city by id.
func (m *Manager) City(id string) (City, bool) {
	idx, ok := m.byID[strings.TrimSpace(id)]
	if !ok {
		return City{}, false
	}
	return m.cities[idx], true
}

// Locality looks up a locality inside a city.
func (m *Manager) Locality(cityID, localityID string) (Locality, bool) {
	city, ok := m.City(cityID)
	if !ok {
		return Locality{}, false
	}
	localityID = strings.TrimSpace(localityID)
	for _, l := range city.Localities {
		if l.ID == localityID {
			return l, true
		}
	}
	return Locality{}, false
}

// FormattedLocation renders a valid pair as "Locality, City".
func (m *Manager) FormattedLocation(cityID, localityID string) (string, bool) {
	city, ok := m.City(cityID)
	if !ok {
		return "", false
	}
	loc, ok := m.Locality(cityID, localityID)
	if !ok {
		return "", false
	}
	return Format(loc.Name, city.Name), true
}

// Resolve turns web widget input into a display location. A valid
// "cityId:localityId" pair is formatted from the catalog; anything else is
// treated as a free-text city and title-cased.
func (m *Manager) Resolve(input string) string {
	input = strings.TrimSpace(input)
	if cityID, locID, ok := strings.Cut(input, ":"); ok {
		if formatted, valid := m.FormattedLocation(cityID, locID); valid {
			return formatted
		}
	}
	return TitleCase(input)
}

// Format joins a locality and city the way stored records expect.
func Format(locality, city string) string {
	return locality + ", " + city
}

// TitleCase lowercases s and upper-cases the first letter of each word.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// CoarseCity returns the last comma-separated segment, e.g. the city of "Locality, City".
func CoarseCity(s string) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
