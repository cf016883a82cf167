package conversation

import (
	"strconv"
	"strings"

	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/location"
)

// cityCapture is the per-channel strategy for asking where the user is.
type cityCapture interface {
	ask(d Data, header string) Result
	handle(step Step, d Data, input string, next func(Data) Result) Result
}

// freeTextCapture accepts a typed city or a "cityId:localityId" pair from the web widget.
type freeTextCapture struct {
	locations *location.Manager
}

func (c freeTextCapture) ask(d Data, header string) Result {
	msg := "📍 Which city do you need the materials in?"
	if header != "" {
		msg = header + "\n\n" + msg
	}
	return Result{Message: msg, Next: StepBuyerCity, Data: d}
}

func (c freeTextCapture) handle(_ Step, d Data, input string, next func(Data) Result) Result {
	if input == "" {
		return c.ask(d, "")
	}
	if cityID, locID, ok := strings.Cut(input, ":"); ok {
		if _, valid := c.locations.FormattedLocation(cityID, locID); valid {
			d.CityID = strings.TrimSpace(cityID)
			d.LocalityID = strings.TrimSpace(locID)
		}
	}
	d.City = c.locations.Resolve(input)
	return next(d)
}

// picker walks the user through the city then locality catalog with buttons.
// Typed numbers are accepted as well as button tokens.
type picker struct {
	locations    *location.Manager
	cityStep     Step
	localityStep Step
	cityPrefix   string
	localPrefix  string
	cityAsk      string
	localityAsk  string
}

func (p picker) ask(d Data, header string) Result {
	return p.askCity(d, header)
}

func (p picker) askCity(d Data, header string) Result {
	cities := p.locations.Cities()
	opts := make([]domain.Option, len(cities))
	lines := make([]string, len(cities))
	for i, c := range cities {
		opts[i] = domain.Option{Label: c.Name, Token: p.cityPrefix + c.ID}
		lines[i] = strconv.Itoa(i+1) + " " + c.Name
	}
	msg := p.cityAsk + "\n" + strings.Join(lines, "\n")
	if header != "" {
		msg = header + "\n\n" + msg
	}
	return Result{Message: msg, Next: p.cityStep, Data: d, Options: opts}
}

func (p picker) askLocality(d Data, city location.City, header string) Result {
	opts := make([]domain.Option, len(city.Localities))
	lines := make([]string, len(city.Localities))
	for i, l := range city.Localities {
		opts[i] = domain.Option{Label: l.Name, Token: p.localPrefix + l.ID}
		lines[i] = strconv.Itoa(i+1) + " " + l.Name
	}
	msg := p.localityAsk + "\n" + strings.Join(lines, "\n")
	if header != "" {
		msg = header + "\n\n" + msg
	}
	return Result{Message: msg, Next: p.localityStep, Data: d, Options: opts}
}

func (p picker) handle(step Step, d Data, input string, next func(Data) Result) Result {
	if step == p.localityStep {
		return p.pickLocality(d, input, next)
	}
	return p.pickCity(d, input)
}

func (p picker) pickCity(d Data, input string) Result {
	cities := p.locations.Cities()
	var (
		city  location.City
		found bool
	)
	if id, ok := strings.CutPrefix(input, p.cityPrefix); ok {
		city, found = p.locations.City(id)
	} else if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(cities) {
		city, found = cities[n-1], true
	}
	if !found {
		return p.askCity(d, "Please select a city from the list.")
	}
	d.CityID = city.ID
	d.LocalityID = ""
	return p.askLocality(d, city, "")
}

func (p picker) pickLocality(d Data, input string, next func(Data) Result) Result {
	city, ok := p.locations.City(d.CityID)
	if !ok {
		return Result{Message: "❌ Invalid city selection. Type /start to begin again.", Next: StepUserType}
	}
	var (
		loc   location.Locality
		found bool
	)
	if id, ok := strings.CutPrefix(input, p.localPrefix); ok {
		loc, found = p.locations.Locality(city.ID, id)
	} else if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(city.Localities) {
		loc, found = city.Localities[n-1], true
	}
	if !found {
		return p.askLocality(d, city, "Please select a locality from the list.")
	}
	d.LocalityID = loc.ID
	d.City = location.Format(loc.Name, city.Name)
	return next(d)
}
