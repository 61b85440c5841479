package textutil

import "math"

// WordErrorRate computes the word-level edit distance between reference and
// hypothesis, normalized by reference length. Both texts are lowercased and
// tokenized on non-alphanumeric boundaries first. Returns 0 when either side
// is empty.
func WordErrorRate(reference, hypothesis string) float64 {
	refWords := Words(reference)
	hypWords := Words(hypothesis)
	if len(refWords) == 0 || len(hypWords) == 0 {
		return 0
	}
	distance := levenshtein(refWords, hypWords)
	return Round4(float64(distance) / float64(len(refWords)))
}

func levenshtein(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// RougeScores computes ROUGE-1 and ROUGE-L F1 between a reference text and a
// hypothesis. Returns zeros when either side is empty.
func RougeScores(reference, hypothesis string) (rouge1, rougeL float64) {
	refWords := Words(reference)
	hypWords := Words(hypothesis)
	if len(refWords) == 0 || len(hypWords) == 0 {
		return 0, 0
	}
	return Round4(rougeN(refWords, hypWords)), Round4(rougeLCS(refWords, hypWords))
}

// rougeN is the unigram-overlap F1 score.
func rougeN(refWords, hypWords []string) float64 {
	refCounts := make(map[string]int, len(refWords))
	for _, word := range refWords {
		refCounts[word]++
	}

	overlap := 0
	for _, word := range hypWords {
		if refCounts[word] > 0 {
			refCounts[word]--
			overlap++
		}
	}
	return f1(overlap, len(refWords), len(hypWords))
}

// rougeLCS is the longest-common-subsequence F1 score.
func rougeLCS(refWords, hypWords []string) float64 {
	lcs := lcsLength(refWords, hypWords)
	return f1(lcs, len(refWords), len(hypWords))
}

func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(b)]
}

func f1(matches, refLen, hypLen int) float64 {
	if matches == 0 || refLen == 0 || hypLen == 0 {
		return 0
	}
	precision := float64(matches) / float64(hypLen)
	recall := float64(matches) / float64(refLen)
	return 2 * precision * recall / (precision + recall)
}

// Round4 rounds to four decimal places, matching how metrics are reported.
func Round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}
