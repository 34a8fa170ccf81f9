package stats

import (
	"regexp"
	"strings"
)

// Platform names.
const (
	Windows         = "Windows"
	Mac             = "Mac"
	Linux           = "Linux"
	UnknownPlatform = "Unknown"
)

var macVersion = regexp.MustCompile(`^[0-9][0-9]\.[0-9]+`)

// ClassifyPlatform maps an OS dimension value (e.g. "IBM10.0.17134") to a platform.
func ClassifyPlatform(os string) string {
	os = strings.TrimSpace(os)
	switch {
	case os == Windows || strings.HasPrefix(os, "IBM"):
		return Windows
	case os == Mac || strings.HasPrefix(os, "APL"):
		return Mac
	case os == Linux || strings.HasPrefix(os, "LIN"):
		return Linux
	default:
		return UnknownPlatform
	}
}

// OSVersion returns a readable version such as "Windows 10.0 64-bit" or
// "OSX 10.14", or "" when the value carries no version.
func OSVersion(os string) string {
	os = strings.TrimSpace(os)
	switch {
	case strings.HasPrefix(os, "IBM"):
		raw := os[3:]
		name := "Windows "
		switch {
		case strings.HasPrefix(raw, "10."):
			name += raw[:min(4, len(raw))]
		case strings.HasPrefix(raw, "6.3"):
			name += "8.1"
		case strings.HasPrefix(raw, "6.2"):
			name += "8.0"
		case strings.HasPrefix(raw, "6.1"):
			name += "7"
		case strings.HasPrefix(raw, "6.0"):
			name += "Vista"
		case strings.HasPrefix(raw, "5"):
			name += "XP"
		}
		if strings.Contains(os, "_32_") {
			return name + " 32-bit"
		}
		return name + " 64-bit"
	case strings.HasPrefix(os, "APL"):
		v := macVersion.FindString(os[3:])
		if v == "" {
			return ""
		}
		return "OSX " + v
	case strings.HasPrefix(os, "LIN"):
		if strings.Contains(os, "32bit") {
			return "Linux 32-bit"
		}
		return "Linux 64-bit"
	}
	return ""
}
