package speech

import (
	"strings"
)

// normalize lowercases, strips punctuation and collapses whitespace so the
// keyword tables only ever see plain ascii-ish tokens.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "’", "'")
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// levenshtein with an early-out limit; anything past limit is limit+1.
func levenshtein(a, b string, limit int) int {
	if a == b {
		return 0
	}
	if abs(len(a)-len(b)) > limit {
		return limit + 1
	}
	dp := make([]int, len(b)+1)
	for j := range dp {
		dp[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= len(b); j++ {
			cur := dp[j]
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			dp[j] = min3(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return dp[len(b)]
}

// anyFuzzy reports whether normalized text matches any keyword in vocab.
// Multi-word keywords match as substrings; single words match a token
// exactly or within maxDist edits (tolerates speech-to-text mangling).
// Short keywords shrink the edit budget and fuzzy matches must share the
// first letter, otherwise "bye" drifts into "buk" territory.
func anyFuzzy(text string, vocab []string, maxDist int) bool {
	tokens := strings.Fields(text)
	for _, raw := range vocab {
		keyword := normalize(raw)
		if keyword == "" {
			continue
		}
		if strings.Contains(keyword, " ") {
			if strings.Contains(text, keyword) {
				return true
			}
			continue
		}
		limit := maxDist
		if len(keyword) <= 4 && limit > 1 {
			limit = 1
		}
		if len(keyword) <= 3 {
			limit = 0
		}
		for _, token := range tokens {
			if token == keyword {
				return true
			}
			if limit > 0 && len(token) >= 4 && token[0] == keyword[0] &&
				levenshtein(token, keyword, limit) <= limit {
				return true
			}
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
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
