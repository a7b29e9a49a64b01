package filters

import (
	"fmt"
	"sort"
	"strings"
)

// Category is one of the search facet groups on the Addgene catalog form.
type Category string

const (
	CategoryExpression          Category = "expression"
	CategoryVectorTypes         Category = "vector_types"
	CategorySpecies             Category = "species"
	CategoryPlasmidType         Category = "plasmid_type"
	CategoryResistanceMarker    Category = "resistance_marker"
	CategoryBacterialResistance Category = "bacterial_resistance"
	CategoryPopularity          Category = "popularity"
)

// Categories in the order they appear on search URLs. The order is fixed so
// that the URL builder stays deterministic.
var Categories = []Category{
	CategoryExpression,
	CategoryVectorTypes,
	CategorySpecies,
	CategoryPlasmidType,
	CategoryResistanceMarker,
	CategoryBacterialResistance,
	CategoryPopularity,
}

// vocabularies maps each category's short tokens to the exact facet label
// the Addgene search form uses internally. The lists are closed; anything
// outside them is rejected, never guessed at.
var vocabularies = map[Category]map[string]string{
	CategoryExpression: {
		"bacterial": "Bacterial Expression",
		"mammalian": "Mammalian Expression",
		"insect":    "Insect Expression",
		"plant":     "Plant Expression",
		"worm":      "Worm Expression",
		"yeast":     "Yeast Expression",
	},
	CategoryVectorTypes: {
		"aav":               "AAV",
		"cre_lox":           "Cre/Lox",
		"crispr":            "CRISPR",
		"lentiviral":        "Lentiviral",
		"luciferase":        "Luciferase",
		"retroviral":        "Retroviral",
		"rnai":              "RNAi",
		"synthetic_biology": "Synthetic Biology",
		"talen":             "TALEN",
		"unspecified":       "Unspecified",
	},
	CategorySpecies: {
		"arabidopsis_thaliana":     "Arabidopsis thaliana",
		"danio_rerio":              "Danio rerio",
		"drosophila_melanogaster":  "Drosophila melanogaster",
		"escherichia_coli":         "Escherichia coli",
		"homo_sapiens":             "Homo sapiens",
		"mus_musculus":             "Mus musculus",
		"rattus_norvegicus":        "Rattus norvegicus",
		"saccharomyces_cerevisiae": "Saccharomyces cerevisiae",
		"sars_cov_2":               "Severe acute respiratory syndrome coronavirus 2",
		"synthetic":                "Synthetic",
	},
	CategoryPlasmidType: {
		"empty_backbone":   "Empty backbone",
		"grna_shrna":       "Encodes gRNA/shRNA",
		"multiple_inserts": "Encodes multiple inserts",
		"single_insert":    "Encodes one insert",
	},
	CategoryResistanceMarker: {
		"basta":       "Basta",
		"blasticidin": "Blasticidin",
		"his3":        "HIS3",
		"hygromycin":  "Hygromycin",
		"leu2":        "LEU2",
		"neomycin":    "Neomycin (select with G418)",
		"puromycin":   "Puromycin",
		"trp1":        "TRP1",
		"ura3":        "URA3",
		"zeocin":      "Zeocin",
	},
	CategoryBacterialResistance: {
		"ampicillin":                    "Ampicillin",
		"ampicillin_kanamycin":          "Ampicillin and kanamycin",
		"zeocin":                        "Bleocin (zeocin)",
		"chloramphenicol":               "Chloramphenicol",
		"chloramphenicol_ampicillin":    "Chloramphenicol and ampicillin",
		"chloramphenicol_spectinomycin": "Chloramphenicol and spectinomycin",
		"gentamicin":                    "Gentamicin",
		"kanamycin":                     "Kanamycin",
		"spectinomycin":                 "Spectinomycin",
		"tetracycline":                  "Tetracycline",
	},
	CategoryPopularity: {
		"low":    "20+ requests",
		"medium": "50+ requests",
		"high":   "100+ requests",
	},
}

// UnknownTokenError reports a filter token outside its category's vocabulary.
type UnknownTokenError struct {
	Category Category
	Token    string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown %s filter token %q (valid: %s)",
		e.Category, e.Token, strings.Join(Tokens(e.Category), ", "))
}

// Translate maps a short token to the facet label the Addgene search form
// expects. It is a pure lookup; no fuzzy matching, no rewriting.
func Translate(category Category, token string) (string, error) {
	vocab, ok := vocabularies[category]
	if !ok {
		return "", fmt.Errorf("unknown filter category %q", category)
	}
	label, ok := vocab[token]
	if !ok {
		return "", &UnknownTokenError{Category: category, Token: token}
	}
	return label, nil
}

// Tokens returns the sorted token vocabulary of a category.
func Tokens(category Category) []string {
	vocab := vocabularies[category]
	tokens := make([]string, 0, len(vocab))
	for t := range vocab {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Set holds up to one short token per category. The zero value means
// "no filters". Empty fields are skipped; present fields are validated
// against their vocabulary before any request is built.
type Set struct {
	Expression          string
	VectorTypes         string
	Species             string
	PlasmidType         string
	ResistanceMarker    string
	BacterialResistance string
	Popularity          string
}

func (s Set) token(category Category) string {
	switch category {
	case CategoryExpression:
		return s.Expression
	case CategoryVectorTypes:
		return s.VectorTypes
	case CategorySpecies:
		return s.Species
	case CategoryPlasmidType:
		return s.PlasmidType
	case CategoryResistanceMarker:
		return s.ResistanceMarker
	case CategoryBacterialResistance:
		return s.BacterialResistance
	case CategoryPopularity:
		return s.Popularity
	}
	return ""
}

// Facet is one translated filter constraint: the query parameter name and
// the facet label value to send for it.
type Facet struct {
	Param string
	Label string
}

// Facets translates every present token, in the fixed category order.
// Filters combine by simple conjunction; no cross-category checks.
func (s Set) Facets() ([]Facet, error) {
	var facets []Facet
	for _, category := range Categories {
		token := s.token(category)
		if token == "" {
			continue
		}
		label, err := Translate(category, token)
		if err != nil {
			return nil, err
		}
		facets = append(facets, Facet{Param: string(category), Label: label})
	}
	return facets, nil
}
