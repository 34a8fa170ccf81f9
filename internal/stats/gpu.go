package stats

import (
	"regexp"
	"strconv"
	"strings"
)

// GPU manufacturers.
const (
	AMD           = "AMD/ATI"
	Nvidia        = "Nvidia"
	Intel         = "Intel"
	UnknownVendor = "Unknown"
)

// GPU platforms.
const (
	IntegratedGPU = "Intel"
	MobileGPU     = "Mobile"
	DesktopGPU    = "Desktop"
)

// GPUManufacturer classifies a renderer string by vendor.
func GPUManufacturer(gpu string) string {
	switch {
	case lowerContainsAny(gpu, "firepro", "firegl", "radeon", "amd ") ||
		hasAnyPrefix(gpu, "67EF", "67DF", "ASUS EAH", "ASUS R"):
		return AMD
	case lowerContainsAny(gpu, "Quadro", "GeForce", "TITAN") || hasAnyPrefix(gpu, "NVS ", "NV1"):
		return Nvidia
	case strings.Contains(gpu, "Intel"):
		return Intel
	}
	return UnknownVendor
}

type genPatterns struct {
	gen       string
	tens      *regexp.Regexp
	tensM     *regexp.Regexp
	hundreds  *regexp.Regexp
	hundredsM *regexp.Regexp
	radeonM   *regexp.Regexp
	radeon    *regexp.Regexp
}

var (
	radeonGens  = buildGens(2, 9)
	geforceGens = buildGens(1, 9)
)

func buildGens(from, to int) []genPatterns {
	const geforce = `GeForce (G|GT|GTX|GTS)?\s*`
	var out []genPatterns
	for g := from; g <= to; g++ {
		gen := strconv.Itoa(g)
		out = append(out, genPatterns{
			gen:       gen,
			tens:      regexp.MustCompile(geforce + gen + `\d\d\s*(Ti)?(\s|/)`),
			tensM:     regexp.MustCompile(geforce + gen + `\d\dM`),
			hundreds:  regexp.MustCompile(geforce + gen + `\d\d\d\s*(Ti)?(\s|/)`),
			hundredsM: regexp.MustCompile(geforce + gen + `\d\d\dM`),
			radeonM:   regexp.MustCompile(gen + `\d\d\dM`),
			radeon:    regexp.MustCompile(gen + `\d\d\d`),
		})
	}
	return out
}

// GPUGeneration buckets a renderer string into a product generation.
// Unrecognised Intel parts return the input unchanged.
func GPUGeneration(gpu string) string {
	lower := strings.ToLower(gpu)
	switch {
	case strings.Contains(lower, "quadro"):
		return "Nvidia Quadro (All Generations)"
	case strings.Contains(lower, "firepro") || strings.Contains(lower, "firegl"):
		return "AMD FirePro (All Generations)"
	case strings.Contains(lower, "radeon") || strings.Contains(lower, "asus"):
		return radeonGeneration(gpu)
	case strings.Contains(lower, "titan x"):
		return "GeForce 9xx"
	case strings.Contains(lower, "titan"):
		return "GeForce 7xx"
	case strings.Contains(lower, "geforce"):
		return geforceGeneration(gpu)
	case strings.Contains(lower, "intel"):
		return intelGeneration(gpu, lower)
	}
	return "Other"
}

func radeonGeneration(gpu string) string {
	for _, p := range radeonGens {
		switch {
		case strings.Contains(gpu, "R"+p.gen+" M"):
			return "Radeon R" + p.gen + "M"
		case strings.Contains(gpu, "R"+p.gen+" "):
			return "Radeon R" + p.gen
		case p.radeonM.MatchString(gpu) || (strings.Contains(gpu, "Mobility") && p.radeon.MatchString(gpu)):
			return "Radeon " + p.gen + "xxxM"
		case p.radeon.MatchString(gpu):
			return "Radeon " + p.gen + "xxx"
		}
	}
	return "Radeon (Other)"
}

func geforceGeneration(gpu string) string {
	for _, p := range geforceGens {
		switch {
		case p.tens.MatchString(gpu):
			return "GeForce " + p.gen + "xx"
		case p.tensM.MatchString(gpu):
			return "GeForce " + p.gen + "xxM"
		case p.hundreds.MatchString(gpu):
			return "GeForce " + p.gen + "xxx"
		case p.hundredsM.MatchString(gpu):
			return "GeForce " + p.gen + "xxxM"
		}
	}
	return "GeForce (Other)"
}

const (
	intelGMA  = "Intel Integrated (GMA or earlier)"
	intelGen5 = "Intel Integrated (5th Generation; HD)"
	intelGen6 = "Intel Integrated (6th Generation; HD 2000/3000)"
	intelGen7 = "Intel Integrated (7th Generation; HD 2500/4x00/5x00)"
	intelGen8 = "Intel Integrated (8th Generation; HD 5x00/6x00)"
	intelGen9 = "Intel Integrated (9th Generation; HD 5xx)"
)

func intelGeneration(gpu, lower string) string {
	switch {
	case containsAny(lower, "gma", "gm45", "g41", "g45", "q45", "eaglelake", "4 series"):
		return intelGMA
	case strings.Contains(lower, "hd") || strings.Contains(lower, "iris"):
		switch {
		case containsAny(lower, "2000", "3000"):
			return intelGen6
		case containsAny(lower, "4000", "4200", "4400", "4600", "4700", "5000", "5100", "5200"):
			return intelGen7
		case containsAny(gpu, "5300", "5500", "5600", "5700", "6000", "6100", "6200", "6300"):
			return intelGen8
		case containsAny(gpu, "500", "505", "510", "515", "520", "530", "540", "550", "580"):
			return intelGen9
		default:
			return intelGen5
		}
	case strings.Contains(lower, "sandybridge"):
		return intelGen6
	case containsAny(lower, "haswell", "ivybridge", "bay trail"):
		return intelGen7
	case strings.Contains(lower, "broadwell"):
		return intelGen8
	case strings.Contains(lower, "skylake"):
		return intelGen9
	case strings.Contains(lower, "ironlake"):
		return intelGen5
	}
	return gpu
}

// GPUPlatform splits GPUs into integrated, mobile and desktop parts.
func GPUPlatform(gpu string) string {
	gen := GPUGeneration(gpu)
	switch {
	case strings.HasPrefix(gen, "Intel"):
		return IntegratedGPU
	case strings.HasSuffix(gen, "M"):
		return MobileGPU
	default:
		return DesktopGPU
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerContainsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
