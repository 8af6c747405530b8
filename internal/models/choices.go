package models

// Vocabulary is an ordered set of enumerated codes with human-readable labels.
// Each domain vocabulary (site type, monument type, period) is declared exactly
// once here and shared by request validation, persistence, and API display
// label mapping.
type Vocabulary struct {
	codes  []string
	labels map[string]string
}

// NewVocabulary builds a Vocabulary from ordered code/label pairs.
func NewVocabulary(pairs [][2]string) Vocabulary {
	v := Vocabulary{
		codes:  make([]string, 0, len(pairs)),
		labels: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		v.codes = append(v.codes, p[0])
		v.labels[p[0]] = p[1]
	}
	return v
}

// Valid reports whether code is a member of the vocabulary.
func (v Vocabulary) Valid(code string) bool {
	_, ok := v.labels[code]
	return ok
}

// Label returns the display label for code, or the empty string for unknown codes.
func (v Vocabulary) Label(code string) string {
	return v.labels[code]
}

// Codes returns the codes in declaration order.
func (v Vocabulary) Codes() []string {
	out := make([]string, len(v.codes))
	copy(out, v.codes)
	return out
}

// SiteTypes is the site classification vocabulary.
var SiteTypes = NewVocabulary([][2]string{
	{"bank", "Bank"},
	{"ditch", "Ditch"},
	{"enclosure", "Enclosure"},
	{"field_system", "Field System"},
	{"industrial", "Industrial"},
	{"mound", "Mound"},
	{"pit", "Pit"},
	{"settlement", "Settlement"},
	{"trackway", "Trackway"},
	{"other", "Other"},
	{"unknown", "Unknown"},
})

// MonumentTypes is the monument classification vocabulary.
var MonumentTypes = NewVocabulary([][2]string{
	{"banjo_enclosure", "Banjo enclosure"},
	{"curvilinear_enclosure", "Curvilinear enclosure"},
	{"defended_enclosure", "Defended enclosure"},
	{"causewayed_enclosure", "Causewayed enclosure"},
	{"rectilinear_enclosure", "Rectilinear enclosure"},
	{"hillfort", "Hillfort"},
	{"promontory_fort", "Promontory fort"},
	{"round_barrow", "Round barrow"},
	{"cairn", "Cairn"},
	{"platform_mound", "Platform mound"},
	{"burial_mound", "Burial mound"},
	{"field_system", "Field system"},
	{"ridge_and_furrow", "Ridge and furrow"},
	{"lynchet", "Lynchet"},
	{"strip_field_system", "Strip field system"},
	{"roman_villa", "Roman villa"},
	{"farmstead", "Farmstead"},
	{"hamlet", "Hamlet"},
	{"deserted_medieval_village", "Deserted medieval village"},
	{"hollow_way", "Hollow way"},
	{"trackway", "Trackway"},
	{"causeway", "Causeway"},
	{"tramway", "Tramway"},
	{"quarry", "Quarry"},
	{"mine_shaft", "Mine shaft"},
	{"leat", "Leat"},
	{"mill", "Mill"},
	{"quarry_pit", "Quarry pit"},
	{"extraction_pit", "Extraction pit"},
	{"boundary_bank", "Boundary bank"},
	{"defensive_bank", "Defensive bank"},
	{"field_boundary", "Field boundary"},
	{"defensive_ditch", "Defensive ditch"},
	{"drainage_ditch", "Drainage ditch"},
	{"boundary_ditch", "Boundary ditch"},
	{"earthwork", "Earthwork"},
	{"cropmark", "Cropmark"},
	{"structure", "Structure (undefined)"},
	{"other", "Other"},
	{"unknown", "Unknown"},
})

// Periods is the archaeological period vocabulary.
var Periods = NewVocabulary([][2]string{
	{"neolithic", "Neolithic"},
	{"bronze_age", "Bronze Age"},
	{"iron_age", "Iron Age"},
	{"roman", "Roman"},
	{"medieval", "Medieval"},
	{"post_medieval", "Post Medieval"},
	{"modern", "Modern"},
	{"unknown", "Unknown"},
})
