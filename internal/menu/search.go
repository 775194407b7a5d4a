package menu

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var amountRegex = regexp.MustCompile(`\d+(?:[.,]?\d+)*`)

// Match is a catalog item found by Search together with its category.
type Match struct {
	Item
	Category string `json:"category"`
}

type scoredMatch struct {
	Match
	score int
}

// Search ranks catalog items against a free-text query. Name hits weigh more
// than category hits, which weigh more than description hits. A positive
// budget drops items priced above it. Ties go to the cheaper item.
func Search(query string, budget float64) []Match {
	tokens := tokenizeQuery(query)

	var scored []scoredMatch
	for _, cat := range catalog.Categories {
		for _, it := range cat.Items {
			if budget > 0 && it.Price > budget {
				continue
			}
			score := 1
			if len(tokens) > 0 {
				score = matchScore(it, cat.Name, tokens)
			}
			if score > 0 {
				scored = append(scored, scoredMatch{Match: Match{Item: it, Category: cat.Name}, score: score})
			}
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score == scored[j].score {
			return scored[i].Price < scored[j].Price
		}
		return scored[i].score > scored[j].score
	})

	out := make([]Match, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Match)
	}
	return out
}

func matchScore(it Item, category string, tokens []string) int {
	name := strings.ToLower(it.Name)
	desc := strings.ToLower(it.Description)
	category = strings.ToLower(category)

	score := 0
	for _, token := range tokens {
		if strings.Contains(name, token) {
			score += 4
		}
		if strings.Contains(category, token) {
			score += 3
		}
		if strings.Contains(desc, token) {
			score += 2
		}
	}
	return score
}

// tokenizeQuery lowercases and splits a query. The generic word "bánh"
// matches most of the catalog, so it only counts when it is alone.
func tokenizeQuery(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	query = strings.NewReplacer(".", " ", ",", " ").Replace(query)
	fields := strings.Fields(query)
	if len(fields) == 1 {
		return fields
	}
	tokens := fields[:0]
	for _, f := range fields {
		if f != "bánh" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ParseBudget reads an amount in VND from text such as "50000", "50.000đ"
// or "50k".
func ParseBudget(text string) (float64, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, fmt.Errorf("empty amount")
	}
	m := amountRegex.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("no numeric value in %q", text)
	}
	m = strings.NewReplacer(".", "", ",", "").Replace(m)

	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", m, err)
	}
	if strings.Contains(text, "k") && n < 1000 {
		n *= 1000
	}
	return float64(n), nil
}
