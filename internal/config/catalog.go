package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hray3182/ClassSync/internal/models"
)

// Semester is a named date range given as MM-DD month-days.
type Semester struct {
	Name  string `yaml:"name" json:"name"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Catalog is the school-specific reference data offered to the form: time
// zone, semester presets, class periods and building codes.
type Catalog struct {
	// Timezone is the IANA zone classes are scheduled in.
	Timezone string `yaml:"timezone" json:"timezone"`

	Semesters []Semester `yaml:"semesters" json:"semesters"`

	// MWFSlots are offered when any of Monday, Wednesday or Friday is picked.
	MWFSlots []string `yaml:"mwf_slots" json:"mwf_slots"`
	// TThSlots are offered when only Tuesday and/or Thursday are picked.
	TThSlots []string `yaml:"tth_slots" json:"tth_slots"`

	// Buildings maps a building code to its display name.
	Buildings map[string]string `yaml:"buildings" json:"buildings"`

	// DefaultReminders are added to every event, in minutes before start.
	DefaultReminders []int `yaml:"default_reminders" json:"default_reminders"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Timezone: "America/Denver",
		Semesters: []Semester{
			{Name: "Fall", Start: "09-01", End: "12-31"},
			{Name: "Winter", Start: "01-01", End: "04-30"},
			{Name: "Spring", Start: "04-01", End: "07-31"},
		},
		MWFSlots: []string{
			"7:45 AM - 8:45 AM",
			"9:00 AM - 10:00 AM",
			"10:15 AM - 11:15 AM",
			"11:30 AM - 12:30 PM",
			"12:45 PM - 1:45 PM",
			"2:00 PM - 3:00 PM",
			"3:15 PM - 4:15 PM",
			"4:30 PM - 5:30 PM",
		},
		TThSlots: []string{
			"7:45 AM - 8:45 AM",
			"8:00 AM - 9:30 AM",
			"9:00 AM - 10:00 AM",
			"9:45 AM - 11:15 AM",
			"10:15 AM - 11:15 AM",
			"12:45 PM - 1:45 PM",
			"1:00 PM - 2:30 PM",
			"2:00 PM - 3:00 PM",
			"2:45 PM - 4:15 PM",
			"3:15 PM - 4:15 PM",
		},
		Buildings: map[string]string{
			"KIM":  "Kimball",
			"TAY":  "Taylor",
			"SPO":  "Spori",
			"ROM":  "Romney",
			"SNO":  "Snow",
			"HRT":  "Hart",
			"BCTR": "BYU-I Center",
			"BEN":  "Benson",
			"MC":   "Manwaring Center",
			"STC":  "Science and Technology Center",
			"SMI":  "Smith",
			"HIN":  "Hinkley",
			"RKS":  "Ricks",
			"ETC":  "Engineering and Technology Center",
			"AUS":  "Austin",
			"CLK":  "Clarke",
		},
		DefaultReminders: []int{15},
	}
}

// Normalize fills in missing values from DefaultCatalog so a partial file
// still works.
func (c *Catalog) Normalize() {
	def := DefaultCatalog()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if len(c.Semesters) == 0 {
		c.Semesters = def.Semesters
	}
	if len(c.MWFSlots) == 0 {
		c.MWFSlots = def.MWFSlots
	}
	if len(c.TThSlots) == 0 {
		c.TThSlots = def.TThSlots
	}
	if c.Buildings == nil {
		c.Buildings = def.Buildings
	}
	upper := make(map[string]string, len(c.Buildings))
	for code, name := range c.Buildings {
		upper[strings.ToUpper(strings.TrimSpace(code))] = name
	}
	c.Buildings = upper
	if c.DefaultReminders == nil {
		c.DefaultReminders = def.DefaultReminders
	}
}

// LoadCatalog reads a YAML catalog. An empty path or a missing file yields
// the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultCatalog(), nil
		}
		return nil, err
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	cat.Normalize()

	if _, err := time.LoadLocation(cat.Timezone); err != nil {
		return nil, fmt.Errorf("catalog timezone %q: %w", cat.Timezone, err)
	}
	for _, s := range cat.Semesters {
		if _, _, err := s.bounds(); err != nil {
			return nil, fmt.Errorf("semester %q: %w", s.Name, err)
		}
	}
	return &cat, nil
}

// Location loads the catalog time zone, falling back to UTC.
func (c *Catalog) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s Semester) bounds() (time.Time, time.Time, error) {
	start, err := time.Parse("01-02", s.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start %q: %w", s.Start, err)
	}
	end, err := time.Parse("01-02", s.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end %q: %w", s.End, err)
	}
	return start, end, nil
}

// SemesterRange returns the dates of the named semester in today's year, or
// in the next year once this year's has ended.
func (c *Catalog) SemesterRange(name string, today models.Date) (models.Date, models.Date, error) {
	for _, s := range c.Semesters {
		if !strings.EqualFold(s.Name, name) {
			continue
		}
		start, end, err := s.bounds()
		if err != nil {
			return models.Date{}, models.Date{}, err
		}

		year := today.Year()
		from := models.NewDate(year, start.Month(), start.Day())
		to := models.NewDate(year, end.Month(), end.Day())
		if today.After(to) {
			from = models.NewDate(year+1, start.Month(), start.Day())
			to = models.NewDate(year+1, end.Month(), end.Day())
		}
		return from, to, nil
	}
	return models.Date{}, models.Date{}, fmt.Errorf("unknown semester %q", name)
}

// TimeSlotsFor picks the period list for the chosen days: the TTh list when
// only Tuesday and Thursday are involved, otherwise the MWF list.
func (c *Catalog) TimeSlotsFor(days models.Weekdays) []string {
	if len(days) == 0 {
		return nil
	}
	for _, d := range days {
		if d != time.Tuesday && d != time.Thursday {
			return c.MWFSlots
		}
	}
	return c.TThSlots
}

// BuildingCodes returns the known codes sorted.
func (c *Catalog) BuildingCodes() []string {
	codes := make([]string, 0, len(c.Buildings))
	for code := range c.Buildings {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
