package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// LaminarResearch is the first-party studio.
	LaminarResearch = "Laminar Research"
	// UnknownEngines marks an aircraft whose engine count was not reported.
	UnknownEngines = -1

	zibo = "Laminar Research modify by Zibo and Twkster"
)

// laminarStock are default aircraft that report without a studio.
var laminarStock = map[string]bool{
	"Bell 206": true, "Baron B58": true, "B747-400 United": true, "FA-22 Raptor": true,
	"B777-200 British Airways": true, "KingAir C90B": true, "Cirrus TheJet": true,
	"F-4 Phantom": true, "C-130": true, "Robinson R22 Beta": true, "P180 Avanti Ferrari Team": true,
	"ASK21": true, "X-15": true, "SR-71 Blackbird-D21a": true, "Lancair Evolution": true,
	"B747-100 NASA": true, "StinsonL5": true, "KC-10": true, "Viggen JA37": true,
	"Marines Sea Harrier": true, "B-52G NASA": true, "Japanese Anime": true,
	"Northrop B-2 Spirit": true, "X-30 NASP": true,
}

var carenadoThranda = map[string]bool{
	"B200 King Air": true, "Cessna T210M Centurion II": true, "C90 King Air": true,
	"Piper PA-31 Navajo": true, "F33A Bonanza": true,
}

var nameNoise = []string{
	" for X-Plane 11", "Aerobask ", "X-Crafts ", " XP11", "Carenado ",
	" for XP11", " For XP11", "FJS ", "Airfoillabs ",
}

var airlinerPrefixes = []string{
	"Boeing 737", "Boeing 747", "Boeing 757", "Boeing 767",
	"Airbus A32", "Airbus A31", "Airbus A33", "Airbus A34", "Airbus A35", "A320 ",
}

// Aircraft is a canonicalised aircraft identity.
type Aircraft struct {
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Engines    int        `json:"engines"`
	Studio     string     `json:"studio"`
}

// IsFirstParty reports whether Laminar Research made the aircraft.
func (a Aircraft) IsFirstParty() bool {
	return a.Studio == LaminarResearch
}

// Key identifies the aircraft for aggregation.
func (a Aircraft) Key() string {
	cats := make([]string, len(a.Categories))
	for i, c := range a.Categories {
		cats[i] = string(c)
	}
	return fmt.Sprintf("%s|%s|%d|%s", a.Name, strings.Join(cats, "/"), a.Engines, a.Studio)
}

// CategoryList joins the categories for display.
func (a Aircraft) CategoryList() string {
	cats := make([]string, len(a.Categories))
	for i, c := range a.Categories {
		cats[i] = string(c)
	}
	return strings.Join(cats, ", ")
}

// ThirdPartyLabel is the chart label: studio then name, "and" shortened to "&".
func (a Aircraft) ThirdPartyLabel() string {
	label := a.Studio + " " + a.Name
	if strings.Contains(a.Studio, "Zibo and Twkster") {
		label = "Zibo and Twkster " + a.Name
	}
	return strings.ReplaceAll(label, " and ", " & ")
}

func (a Aircraft) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Studio)
}

// ParseAircraft parses "name - Class: a/b - Studio: s - Engines: n" and
// canonicalises the names and studios of well known add-ons.
func ParseAircraft(s string) (Aircraft, error) {
	p := parsed{engines: UnknownEngines}
	remaining := s

	if head, tail, ok := cutLast(remaining, " - Engines: "); ok {
		n, err := strconv.Atoi(strings.TrimSpace(tail))
		if err != nil {
			return Aircraft{}, fmt.Errorf("parse engines in %q: %w", s, err)
		}
		remaining, p.engines = head, n
	}
	if head, tail, ok := cutLast(remaining, " - Studio: "); ok {
		remaining, p.studio = head, tail
	}
	if head, tail, ok := cutLast(remaining, " - Class: "); ok {
		remaining = head
		for _, name := range strings.Split(tail, "/") {
			c, err := ParseCategory(name)
			if err != nil {
				return Aircraft{}, err
			}
			p.addCategory(c)
		}
	}
	p.name = remaining

	p.canonicalise()
	return p.aircraft(), nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

type parsed struct {
	name       string
	studio     string
	engines    int
	categories map[Category]bool
}

func (p *parsed) addCategory(c Category) {
	if p.categories == nil {
		p.categories = make(map[Category]bool)
	}
	p.categories[c] = true
}

func (p *parsed) setCategories(cs ...Category) {
	p.categories = nil
	for _, c := range cs {
		p.addCategory(c)
	}
}

// nameHas reports whether the name contains every sub.
func (p *parsed) nameHas(subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(p.name, sub) {
			return false
		}
	}
	return true
}

func (p *parsed) lowerNameHasAny(subs ...string) bool {
	lower := strings.ToLower(p.name)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func (p *parsed) noStudio() bool {
	return p.studio == "" || p.studio == "Other"
}

func (p *parsed) canonicalise() {
	if p.engines == UnknownEngines {
		switch {
		case p.nameHas("Twin Beech"):
			p.engines = 2
		case p.nameHas("Turbo 310R"):
			p.engines = 1
		}
	}

	switch {
	case strings.TrimSpace(p.studio) == "JARDESIGN (C)":
		p.studio = "JARDesign"
	case strings.HasSuffix(p.studio, "dmax3d.com"):
		p.studio = "dmax3d.com"
	case strings.Contains(p.studio, "Just Flight"):
		p.studio = strings.ReplaceAll(p.studio, "Just Flight", "JustFlight")
	case p.nameHas("_JARDesign"):
		p.name = strings.ReplaceAll(p.name, "_JARDesign", "")
		p.studio = "JARDesign"
	}

	if p.noStudio() {
		p.guessStudio()
	}

	switch {
	case strings.HasPrefix(p.name, "Boeing 757-200"):
		p.name = "Boeing 757-200"
	case p.studio == "IXEG" && p.nameHas("737"):
		p.name = "Boeing 737-300"
	case p.nameHas("A380-plus"):
		p.name = "A380-plus"
		p.studio = "riviere"
		p.setCategories(Airliner)
	}

	if p.studio != "" {
		p.canonicaliseByStudio()
	}

	p.canonicaliseByName()

	for _, noise := range nameNoise {
		p.name = strings.ReplaceAll(p.name, noise, "")
	}
	p.name = strings.TrimSpace(p.name)

	if p.noStudio() {
		if p.lowerNameHasAny("boeing777") && p.lowerNameHasAny("extended") || p.name == "777 Worldliner Professional" {
			p.studio = "Flight Factor"
			p.name = "Boeing 777"
		}
		if p.name == "Boeing 757" || strings.HasPrefix(p.name, "Boeing757-200v") {
			p.studio = "Flight Factor and StepToSky"
		}
	}

	if strings.Contains(p.studio, "Flight Factor") {
		switch {
		case p.nameHas("777"):
			p.name = "Boeing 777"
		case p.lowerNameHasAny("a350"):
			p.name = "Airbus A350"
		case p.lowerNameHasAny("a320"):
			p.name = "A320 Ultimate"
			p.studio = "Flight Factor"
		case p.lowerNameHasAny("boeing777"):
			p.name = "Boeing 777"
		case strings.HasPrefix(p.name, "Boeing 767"):
			p.name = "Boeing 767"
		case hasAnyPrefix(p.name, "Boeing 757", "Boeing757", "FlightFactor Boeing 757"):
			p.name = "Boeing 757"
		}
	}

	if p.engines == UnknownEngines {
		switch {
		case hasAnyPrefix(p.name, "F-35A", "T-6B", "T-6A", "MB339A"):
			p.engines = 1
		case strings.HasPrefix(p.name, "Beech D18S"):
			p.engines = 2
		}
	}

	if hasAnyPrefix(p.name, airlinerPrefixes...) {
		p.setCategories(Airliner)
	}
}

// guessStudio attributes aircraft that reported no studio.
func (p *parsed) guessStudio() {
	switch {
	case laminarStock[strings.TrimSpace(p.name)]:
		p.studio = LaminarResearch
	case p.lowerNameHasAny("320 neo", "320neo", "321neo"):
		p.name = "A320"
		p.studio = "JARDesign"
	case p.lowerNameHasAny("330 neo"):
		p.name = "A330"
		p.studio = "JARDesign"
	case p.nameHas("Boeing737-800_x737"):
		p.name = "Boeing 737-800"
		p.studio = "x737 project, EADT"
	case p.nameHas("FlightFactor "):
		p.name = strings.ReplaceAll(p.name, "FlightFactor ", "")
		p.studio = "Flight Factor"
	case p.nameHas("Flight Factor "):
		p.name = strings.ReplaceAll(p.name, "Flight Factor ", "")
		p.studio = "Flight Factor"
	case p.nameHas("Boeing 757"):
		p.studio = "Flight Factor and StepToSky"
	case strings.HasPrefix(p.name, "IXEG "):
		p.name = strings.ReplaceAll(p.name, "IXEG ", "")
		p.studio = "IXEG"
	case p.nameHas("Piper", "Arrow"):
		p.name = "PA28 Arrow"
		p.studio = "JustFlight/Thranda Design"
	case p.nameHas("CRJ-200"):
		p.name = "Bombardier CRJ-200"
		p.studio = "JRollon"
	case p.nameHas("Bell 429"):
		p.name = "Bell 429"
		p.studio = "timber61"
	case p.nameHas("Let L-410"):
		p.studio = "X-Plane.hu"
	case p.nameHas("H145"):
		p.studio = "Liebernickel"
		p.name = "H145"
	case p.nameHas("MBB Kawasaki BK-117B2"):
		p.name = "MBB Kawasaki BK-117B2"
		p.studio = "ND Art & Technology"
	case p.nameHas("Boeing 787-9"):
		p.studio = "Magknight"
		p.setCategories(Airliner)
	case p.nameHas("Lancair Legacy"):
		p.studio = "nicolas"
	case p.nameHas("Ikarus C42"):
		p.studio = "vFlyteAir"
	case p.nameHas("Dash 7-150"):
		p.studio = "Stingray14"
	}
}

func (p *parsed) canonicaliseByStudio() {
	switch {
	case p.studio == "x737 project, EADT" && p.name == "B738":
		p.name = "Boeing 737-800"
	case p.studio == "EADT" && p.nameHas("737-700"):
		p.name = "Boeing 737-700"
		p.studio = "x737 project, EADT"
	case strings.HasPrefix(p.studio, "Airfoillab"):
		p.studio = "Airfoillabs"
	case strings.ToLower(p.studio) == "jardesign":
		p.studio = "JARDesign"
		if p.nameHas("320") {
			p.name = "A320"
			p.setCategories(Airliner)
		}
		if p.nameHas("321") {
			p.name = "A321"
			p.setCategories(Airliner)
		} else if p.nameHas("330") {
			p.name = "A330"
			p.setCategories(Airliner)
		}
	case strings.Contains(p.studio, "FlightFactor"):
		p.studio = strings.ReplaceAll(p.studio, "FlightFactor", "Flight Factor")
	case p.studio == "Rotate" && p.nameHas("MD-80"):
		p.name = "MD-80"
	case p.studio == "ToLiss" && p.nameHas("A319"):
		p.name = "Airbus A319"
	case p.studio == "ghansen" && p.nameHas("Gulfstream"):
		p.setCategories(Airliner)
	case p.studio == "FlyJSim":
		switch {
		case p.nameHas("727"):
			p.name = "Boeing 727"
		case p.nameHas("732 Twinjet"):
			p.name = "Boeing 737-200"
		}
	case p.studio == "XPFR" && p.nameHas("RAFALE C"):
		p.name = "Rafale C"
	case p.studio == "Aerobask":
		if p.nameHas("Epic E1000") {
			p.name = "Epic E1000"
		}
	case p.studio == LaminarResearch:
		p.canonicaliseLaminar()
	}
}

func (p *parsed) canonicaliseLaminar() {
	switch {
	case p.nameHas("Avanti"):
		p.name = "Piaggio P.180 Avanti"
	case p.nameHas("Baron"):
		p.name = "Baron B58"
	case p.nameHas("Cirrus"):
		p.name = "Cirrus Vision SF50"
	case p.nameHas("747-100"):
		p.name = "Boeing 747-100"
	case p.nameHas("Stinson"):
		p.name = "Stinson L-5 Sentinel"
	case p.nameHas("F-22") || p.nameHas("FA-22"):
		p.name = "FA-22 Raptor"
	case p.nameHas("747-400"):
		p.name = "Boeing 747-400"
	case p.nameHas("Harrier"):
		p.name = "AV-8B Harrier II"
		p.setCategories(VTOL, Military)
	case p.nameHas("Bell 206"):
		p.name = "Bell 206"
	case p.nameHas("King", "Air"):
		p.name = "King Air C90"
	case p.nameHas("172"):
		p.name = "Cessna Skyhawk"
	case p.nameHas("F-4"):
		p.name = "F-4 Phantom II"
	case p.nameHas("MD-82"):
		p.name = "MD-82"
		p.setCategories(Airliner)
	case p.nameHas("Viggen"):
		p.name = "JA 37 Viggen"
	case p.nameHas("ASK", "21"):
		p.name = "Schleicher ASK 21"
	case p.nameHas("B-52"):
		p.name = "B-52G Stratofortress"
	}
	if p.nameHas("Boeing") {
		p.setCategories(Airliner)
	}
}

func (p *parsed) canonicaliseByName() {
	switch {
	case p.nameHas("Boeing757v"):
		p.name = "Boeing 757"
		if p.studio == "" {
			p.studio = "FlightFactor and StepToSky"
		}
	case p.nameHas("CRJ-200"):
		p.name = "Bombardier CRJ-200"
		p.setCategories(Airliner)
	case p.nameHas("Tecnam", "P2002"):
		p.name = "Tecnam P2002"
		p.setCategories(GeneralAviation, Ultralight)
	case p.nameHas("Antares 20E"):
		p.setCategories(Glider)
	case p.nameHas("Epic_E1000_Skyview"):
		p.name = "Epic E1000 Skyview"
	case p.nameHas("Akoya"):
		p.name = "Lisa Akoya"
	case carenadoThranda[p.name] && p.studio == "Carenado":
		p.studio = "Carenado/Thranda Design"
	case p.nameHas("V35", "Bonanza") && strings.Contains(p.studio, "Carenado"):
		p.name = "Bonanza V35B"
	case p.nameHas("B58 Baron") && strings.Contains(p.studio, "Carenado"):
		p.name = "Beechcraft B58 Baron"
		p.studio = "Carenado/Thranda Design"
	case p.nameHas("Cessna T210M Centurion II") && strings.Contains(p.studio, "Carenado"):
		p.name = "Cessna T210M Centurion II"
		p.studio = "Carenado/Thranda Design"
	case p.nameHas("x737-800"):
		p.name = "Boeing 737-800"
		p.studio = "x737 project, EADT"
	case p.lowerNameHasAny("320 ultimate", "320ultimate") || p.nameHas("FlightFactorA320") ||
		p.name == "FF_A320" || p.name == "A320FF" || p.name == "FF A320" || p.name == "FFA320":
		p.name = "A320 Ultimate"
		p.studio = "Flight Factor"
	case p.nameHas("Boeing 737-800X") && strings.Contains(p.studio, "Zibo"):
		p.studio = zibo
	}
}

func (p *parsed) aircraft() Aircraft {
	cats := make([]Category, 0, len(p.categories))
	for c := range p.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	studio := strings.TrimSpace(p.studio)
	if studio == "" {
		studio = "Other"
	}
	return Aircraft{
		Name:       strings.TrimSpace(p.name),
		Categories: cats,
		Engines:    p.engines,
		Studio:     studio,
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
