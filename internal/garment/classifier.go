// Package garment maps catalog metadata onto overlay silhouette types.
package garment

import (
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"

	"go-tryon/pkg/models"
)

// rule pairs a silhouette with the keywords that select it.
type rule struct {
	Type     models.GarmentType
	Keywords []string
}

// rules are evaluated in order and the first match wins. Ambiguous items
// fall through to the simplest silhouette, so dress must stay first and
// top last.
var rules = []rule{
	{models.GarmentDress, []string{"dress", "sundress", "gown", "jumpsuit", "romper", "playsuit", "frock", "kaftan"}},
	{models.GarmentSkirt, []string{"skirt", "skort", "lehenga"}},
	{models.GarmentShorts, []string{"shorts", "bermuda", "hotpant", "boardshort"}},
	{models.GarmentPants, []string{"pant", "trouser", "jean", "legging", "jogger", "chino", "capri", "palazzo", "trackpant", "sweatpant", "cargo", "slack"}},
	{models.GarmentTop, []string{"shirt", "tshirt", "tee", "top", "blouse", "hoodie", "sweatshirt", "sweater", "jacket", "coat", "blazer", "cardigan", "polo", "tank", "kurta", "vest", "jersey", "pullover"}},
}

// minFuzzyTokenLength keeps short tokens such as "tee" or "top" exact.
const minFuzzyTokenLength = 5

// Classifier resolves a garment descriptor to a silhouette type.
type Classifier struct {
	maxDistance int
}

// NewClassifier creates a classifier. A maxDistance above zero also accepts
// tokens within that edit distance of a keyword.
func NewClassifier(maxDistance int) *Classifier {
	if maxDistance < 0 {
		maxDistance = 0
	}
	return &Classifier{maxDistance: maxDistance}
}

// Classify returns the silhouette for g, defaulting to top.
func (c *Classifier) Classify(g models.GarmentDescriptor) models.GarmentType {
	toks := tokens(g)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			for _, tok := range toks {
				if c.matches(tok, kw) {
					return r.Type
				}
			}
		}
	}
	return models.GarmentTop
}

// Classify uses exact keyword matching.
func Classify(g models.GarmentDescriptor) models.GarmentType {
	return NewClassifier(0).Classify(g)
}

func (c *Classifier) matches(tok, kw string) bool {
	if tok == kw || tok == kw+"s" || tok == kw+"es" {
		return true
	}
	if c.maxDistance == 0 || len(tok) < minFuzzyTokenLength || len(kw) < minFuzzyTokenLength {
		return false
	}
	return levenshtein.Distance(tok, kw) <= c.maxDistance
}

// tokens lowercases and splits the descriptor text on anything that is not a letter.
// Hyphenated compounds are also kept joined, so "t-shirt" yields "tshirt".
func tokens(g models.GarmentDescriptor) []string {
	fields := append([]string{g.ArticleType, g.Subcategory, g.Category, g.Name}, g.Tags...)
	text := strings.ToLower(strings.Join(fields, " "))

	var out []string
	for _, word := range strings.Fields(text) {
		parts := strings.FieldsFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
		out = append(out, parts...)
		if len(parts) > 1 {
			out = append(out, strings.Join(parts, ""))
		}
	}
	return out
}
