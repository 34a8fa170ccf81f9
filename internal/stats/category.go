package stats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned for a class name with no known translation.
var ErrUnknownCategory = errors.New("unknown aircraft category")

// Category is an aircraft classification.
type Category string

const (
	GeneralAviation Category = "General Aviation"
	Airliner        Category = "Airliner"
	Cargo           Category = "Cargo"
	Seaplane        Category = "Seaplane"
	Helicopter      Category = "Helicopter"
	Glider          Category = "Glider"
	Military        Category = "Military"
	Experimental    Category = "Experimental"
	Ultralight      Category = "Ultralight"
	VTOL            Category = "VTOL"
	ScienceFiction  Category = "Science Fiction"
)

// Categories lists every category.
var Categories = []Category{
	GeneralAviation, Airliner, Cargo, Seaplane, Helicopter, Glider,
	Military, Experimental, Ultralight, VTOL, ScienceFiction,
}

// categoryTranslations maps localized class names reported by the simulator.
var categoryTranslations = map[Category][]string{
	GeneralAviation: {"Aviação Geral", "小型機", "Avion général", "Малая авиация", "Aviation Générale", "Aviación General", "Avión de Pasajeros", "Aviazione Generale", "Allgemeine Luftfahrt", "Avion de tourisme"},
	Airliner:        {"Aereo di linea", "Verkehrsflugzeug", "Avion de ligne", "Avion de Ligne", "Aviação Comercial", "Авиалайнеры", "航空会社", "民航客机", "客机", "通用航空器"},
	Seaplane:        {"Hydravion", "Flugboot", "Hidroavión", "水上飛行機", "Idrovolante", "水上飞机"},
	Helicopter:      {"Hubschrauber", "Elicottero", "Helicóptero", "Hélicopter", "Hélicoptère", "Вертолеты", "ヘリコプター", "直升机"},
	Glider:          {"Segler", "Planador", "Планёры", "Planeador", "Planeur", "Segelflieger", "Aliante", "グライダー", "滑翔机"},
	Military:        {"Militär", "Militaire", "Militar", "Militare", "軍用機", "军用飞机", "Военные ЛА"},
	Experimental:    {"Expérimental", "Sperimentale", "実験機", "试验机"},
	Ultralight:      {"Ultra", "Ultraleicht", "Ultraligero", "超軽量飛行機", "Ultra-Léger", "Ultraleggero", "超轻型飞机", "Сверхлегкие"},
	ScienceFiction:  {"サイエンスフィクション"},
	VTOL:            {"Cамолёты вертикального взлёта и посадки"},
	Cargo:           {"Fracht", "Cargamento"},
}

var categoryLookup = func() map[string]Category {
	m := make(map[string]Category)
	for _, c := range Categories {
		m[string(c)] = c
	}
	for c, names := range categoryTranslations {
		for _, name := range names {
			m[name] = c
		}
	}
	return m
}()

// ParseCategory accepts English names and the localized variants.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryLookup[strings.TrimSpace(s)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) String() string { return string(c) }
