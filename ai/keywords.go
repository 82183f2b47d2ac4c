package ai

import (
	"strings"
	"unicode"
)

// stopWords are common Spanish words excluded from keyword extraction.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`el la de que y a en un es se no te lo le
		da su por son con para al del los las una como pero sus todo esta entre
		cuando muy sin sobre también me hasta desde está mi porque sólo han yo
		hay vez puede todos ya era ser dos tiene más año años bien tiempo mismo
		cada e otra después vida quien momento aunque nueva saber donde nada
		mucho antes mundo aquí tal solo hecho nunca menos hacer`) {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords returns up to max words shared by a ruling's text and
// the query, skipping stop words and short or non-alphabetic words.
// Order follows first appearance in the text, so results are stable.
func ExtractKeywords(texto, consulta string, max int) []string {
	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(consulta)) {
		queryWords[w] = struct{}{}
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, palabra := range strings.Fields(strings.ToLower(texto)) {
		if len(keywords) >= max {
			break
		}
		if _, dup := seen[palabra]; dup {
			continue
		}
		if _, stop := stopWords[palabra]; stop {
			continue
		}
		if len([]rune(palabra)) <= 3 || !isAlpha(palabra) {
			continue
		}
		if _, ok := queryWords[palabra]; !ok {
			continue
		}
		seen[palabra] = struct{}{}
		keywords = append(keywords, palabra)
	}

	return keywords
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
