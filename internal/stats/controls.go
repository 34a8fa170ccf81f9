package stats

import (
	"strconv"
	"strings"

	"github.com/X-Plane/dashboard/internal/ga"
)

// Flight control types.
const (
	ControlMouse    = "Mouse"
	ControlYoke     = "Yoke"
	ControlJoystick = "Joystick"
	ControlGamepad  = "Gamepad"
	ControlRC       = "RC Controller"
	ControlUnknown  = "Unknown"

	minModelUsers = 5
)

var (
	knownYokes = []string{
		"Saitek Pro Flight Yoke", "Saitek X52", "CH FLIGHT SIM YOKE", "CH ECLIPSE YOKE",
		"Pro Flight Cessna Yoke", "PFC Cirrus Yoke", "CH 3-Axis 10-Button POV USB Yoke",
	}
	knownSticks = []string{
		"Logitech 3D Pro", "T.Flight Hotas", "T.Flight Stick X", "Logitech Attack 3",
		"Mad Catz F.L.Y.5 Stick", "SideWinder Precision 2", "T.16000M",
		"SideWinder Force Feedback 2", "Saitek Pro Flight X-55 Rhino Stick", "Cyborg",
		"Saitek Cyborg USB Stick", "AV8R", "Logitech Freedom 2.4", "SideWinder Joystick",
		"Mad Catz V.1 Stick", "SideWinder Precision Pro", "SideWinder 3D Pro",
		"Logitech Force 3D Pro", "WingMan Force 3D", "Joystick - HOTAS Warthog",
		"WingMan Extreme Digital 3D", "WingMan Extreme 3D", "Top Gun Afterburner",
		"CH FLIGHTSTICK PRO", "CH FIGHTERSTICK", "CH COMBATSTICK", "Saitek ST290",
		"Saitek ST90", "Top Gun Fox 2", "Aviator for Playstation 3", "Dark Tornado Joystick",
		"Saitek X45", "Saitek X36", "USB Joystick", "Pro Flight X65", "G940",
		"HOTAS Cougar Joystick", "MetalStrik 3D", "WingMan Attack 2",
	}
	knownGamepads = []string{
		"XBOX", "Playstation(R)3 Controller", "WingMan Cordless Gamepad", "WingMan RumblePad",
		"Logitech Dual Action", "RumblePad 2", "ASUS Gamepad", "USB WirelessGamepad",
		"Betop Controller", "Logitech(R) Precision(TM) Gamepad", "Wireless Gamepad F710",
	}
	knownRC = []string{"InterLink Elite", "RealFlight Interface"}

	// vendor/product ids reported instead of a device name
	deviceAliases = []struct{ match, name string }{
		{"VID:1133PID:49685", "Logitech Extreme 3D"},
		{"WingMan Ext Digital 3D", "WingMan Extreme Digital 3D"},
		{"VID:1699PID:1890", "Saitek X52"},
		{"Wireless 360 Controller", "XBOX"},
		{"VID:121PID:6", "Generic USB Joystick"},
		{"VID:1678PID:49402", "CH Products (Unknown)"},
	}
)

// CanonicalControlName maps a flight controls dimension value onto a known model name.
func CanonicalControlName(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "Mouse") {
		return ControlMouse
	}
	for _, alias := range deviceAliases {
		if strings.Contains(s, alias.match) {
			return alias.name
		}
	}
	lower := strings.ToLower(s)
	for _, list := range [][]string{knownYokes, knownSticks, knownGamepads} {
		for _, control := range list {
			if strings.Contains(lower, strings.ToLower(control)) {
				return control
			}
		}
	}
	return strings.ReplaceAll(s, ",", ";")
}

// ClassifyControl returns the device type of a flight controls value.
func ClassifyControl(s string) string {
	name := CanonicalControlName(s)
	lower := strings.ToLower(name)
	switch {
	case name == ControlMouse:
		return ControlMouse
	case contains(knownYokes, name):
		return ControlYoke
	case contains(knownSticks, name):
		return ControlJoystick
	case contains(knownGamepads, name):
		return ControlGamepad
	case contains(knownRC, name):
		return ControlRC
	case strings.Contains(lower, "yoke"):
		return ControlYoke
	case strings.Contains(lower, "stick"):
		return ControlJoystick
	case strings.Contains(lower, "pad"):
		return ControlGamepad
	}
	return ControlUnknown
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// FlightControls summarises primary flight controls.
type FlightControls struct {
	// Models excludes mouse users; models under five users are folded into Other.
	Models Counts `json:"models"`
	Types  Counts `json:"types"`
	Pedals Counts `json:"pedals"`
}

// FlightControlsFromRows aggregates (controls, users) rows.
func FlightControlsFromRows(rows []ga.Row) FlightControls {
	fc := FlightControls{Models: Counts{}, Types: Counts{}, Pedals: Counts{}}
	for _, row := range rows {
		n, ok := rowCount(row)
		if !ok {
			continue
		}
		fc.Models.Add(CanonicalControlName(row[0]), n)
		fc.Types.Add(ClassifyControl(row[0]), n)

		lower := strings.ToLower(strings.TrimSpace(row[0]))
		if strings.Contains(lower, "rudder") || strings.Contains(lower, "pedals") {
			fc.Pedals.Add("Yes", n)
		} else {
			fc.Pedals.Add("No", n)
		}
	}

	for model, n := range fc.Models {
		if model != Other && model != ControlMouse && n < minModelUsers {
			fc.Models.Add(Other, n)
			delete(fc.Models, model)
		}
	}
	delete(fc.Models, ControlMouse)
	return fc
}

// CPUCores counts users per core count; rows without a "Cores:" field count as 0.
func CPUCores(rows []ga.Row) Counts {
	out := Counts{}
	for _, row := range rows {
		n, ok := rowCount(row)
		if !ok {
			continue
		}
		out.Add(strconv.Itoa(coreCount(row[0])), n)
	}
	return out
}

func coreCount(cpu string) int {
	for _, field := range strings.Split(cpu, " - ") {
		if strings.HasPrefix(field, "Cores:") {
			parts := strings.Split(field, " ")
			if len(parts) < 2 {
				return 0
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}

// rowCount parses the metric column of a two-column row.
func rowCount(row ga.Row) (int64, bool) {
	if len(row) < 2 {
		return 0, false
	}
	n, err := ga.ParseCount(row[len(row)-1])
	return n, err == nil
}
