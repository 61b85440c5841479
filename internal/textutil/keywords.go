package textutil

import (
	"sort"
	"strings"
)

// minKeywordTextLength is the shortest text worth extracting keywords from.
const minKeywordTextLength = 20

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "have": {}, "him": {},
	"his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "did": {},
	"get": {}, "let": {}, "say": {}, "she": {}, "too": {}, "use": {},
	"that": {}, "this": {}, "with": {}, "they": {}, "them": {}, "then": {},
	"than": {}, "from": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"will": {}, "would": {}, "there": {}, "their": {}, "these": {}, "those": {},
	"been": {}, "being": {}, "were": {}, "your": {}, "into": {}, "about": {},
	"because": {}, "could": {}, "should": {}, "other": {}, "some": {},
	"such": {}, "only": {}, "over": {}, "also": {}, "after": {}, "before": {},
	"very": {}, "just": {}, "more": {}, "most": {}, "each": {}, "here": {},
	"does": {}, "doing": {}, "between": {}, "through": {}, "during": {},
	"while": {}, "both": {}, "every": {}, "many": {}, "much": {},
}

type scoredPhrase struct {
	phrase string
	count  float64
}

// Keywords extracts up to topN keyphrases from text by term frequency.
// Unigrams and bigrams compete; stopwords never appear in a phrase. Texts
// shorter than a sentence fragment return nothing.
func Keywords(text string, topN int) []string {
	if topN <= 0 {
		return nil
	}
	if len(strings.TrimSpace(text)) < minKeywordTextLength {
		return nil
	}

	tokens := Tokenize(text)
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		if _, skip := stopwords[token]; skip {
			continue
		}
		counts[token]++
	}
	if len(counts) == 0 {
		return nil
	}

	// Bigrams count only when both members are adjacent content words in the
	// original token stream.
	for i := 0; i+1 < len(tokens); i++ {
		first, second := tokens[i], tokens[i+1]
		if _, skip := stopwords[first]; skip {
			continue
		}
		if _, skip := stopwords[second]; skip {
			continue
		}
		counts[first+" "+second]++
	}

	phrases := make([]scoredPhrase, 0, len(counts))
	for phrase, count := range counts {
		phrases = append(phrases, scoredPhrase{phrase: phrase, count: count})
	}
	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].count != phrases[j].count {
			return phrases[i].count > phrases[j].count
		}
		// Prefer the longer phrase at equal frequency; a repeated bigram
		// says more than either word alone.
		if len(phrases[i].phrase) != len(phrases[j].phrase) {
			return len(phrases[i].phrase) > len(phrases[j].phrase)
		}
		return phrases[i].phrase < phrases[j].phrase
	})

	if len(phrases) > topN {
		phrases = phrases[:topN]
	}
	keywords := make([]string, 0, len(phrases))
	for _, entry := range phrases {
		keywords = append(keywords, entry.phrase)
	}
	return keywords
}
