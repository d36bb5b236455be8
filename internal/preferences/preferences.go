// Package preferences holds the cross-cutting user preferences. A single
// Preferences value is built at start-up and passed to whoever needs it.
package preferences

import (
	"fmt"
	"math"
	"strings"
)

type Units string

const (
	Celsius    Units = "C"
	Fahrenheit Units = "F"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Preferences struct {
	Units                Units `json:"units"`
	Theme                Theme `json:"theme"`
	NotificationsEnabled bool  `json:"notifications_enabled"`
}

func Default() Preferences {
	return Preferences{Units: Celsius, Theme: ThemeLight, NotificationsEnabled: true}
}

// New validates raw configuration values.
func New(units, theme string, notifications bool) (Preferences, error) {
	u, err := ParseUnits(units)
	if err != nil {
		return Preferences{}, err
	}
	th, err := ParseTheme(theme)
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{Units: u, Theme: th, NotificationsEnabled: notifications}, nil
}

func ParseUnits(s string) (Units, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "C", "CELSIUS", "METRIC":
		return Celsius, nil
	case "F", "FAHRENHEIT", "IMPERIAL":
		return Fahrenheit, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q", s)
}

func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "light":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// WithUnits returns a copy using u for temperatures.
func (p Preferences) WithUnits(u Units) Preferences {
	p.Units = u
	return p
}

// Temperature converts a Celsius reading to the preferred unit, one decimal.
func (u Units) Temperature(celsius float64) float64 {
	v := celsius
	if u == Fahrenheit {
		v = celsius*9/5 + 32
	}
	return math.Round(v*10) / 10
}
