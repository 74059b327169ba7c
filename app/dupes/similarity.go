package dupes

import (
	"strings"
	"unicode"

	"contactimport/app/interfaces"
)

// Pairwise similarity scoring. The score is symmetric: swapping which
// contact is "incoming" and which is "existing" yields the same confidence.

// Score computes the similarity confidence for one candidate pair.
//
// Exact email match floors the score at the configured email floor; exact
// phone-digit match floors it at the phone floor. Independent of the floors,
// name edit-distance similarity contributes with the name weight and shared
// city/address tokens contribute partial credit with the location weight.
// The result is clamped to [0,1].
func Score(a, b interfaces.ImportedContact, cfg Config) float64 {
	score := cfg.NameWeight*nameSimilarity(a.Name, b.Name) +
		cfg.LocationWeight*locationOverlap(a, b)

	if emailKey(a.Email) != "" && emailKey(a.Email) == emailKey(b.Email) {
		if score < cfg.EmailFloor {
			score = cfg.EmailFloor
		}
	}
	if phoneDigits(a.Phone) != "" && phoneDigits(a.Phone) == phoneDigits(b.Phone) {
		if score < cfg.PhoneFloor {
			score = cfg.PhoneFloor
		}
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// nameSimilarity is normalized edit-distance similarity on case-folded,
// whitespace-collapsed names, scaled to [0,1].
func nameSimilarity(a, b string) float64 {
	na := canonicalName(a)
	nb := canonicalName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	dist := levenshtein(na, nb)
	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	return 1 - float64(dist)/float64(longest)
}

// locationOverlap gives partial credit for shared city/address tokens:
// the fraction of the smaller token set found in the larger one.
func locationOverlap(a, b interfaces.ImportedContact) float64 {
	ta := locationTokens(a)
	tb := locationTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	small, large := ta, tb
	if len(tb) < len(ta) {
		small, large = tb, ta
	}

	largeSet := make(map[string]bool, len(large))
	for _, t := range large {
		largeSet[t] = true
	}

	shared := 0
	for _, t := range small {
		if largeSet[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

func locationTokens(c interfaces.ImportedContact) []string {
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(c.City + " " + c.Address)) {
		f = strings.Trim(f, ".,#")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// canonicalName lowercases and collapses whitespace.
func canonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// firstNameToken returns the first whitespace token of the canonical name.
func firstNameToken(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// emailKey normalizes an email for exact comparison.
func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailLocalPart returns the lowercased local part (before the @) used as a
// domain-independent blocking key.
func emailLocalPart(email string) string {
	key := emailKey(email)
	if at := strings.Index(key, "@"); at > 0 {
		return key[:at]
	}
	return ""
}

// phoneDigits strips a phone value to its digits.
func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneSuffix returns the last n digits of a phone value, or "" when fewer
// digits are present.
func phoneSuffix(phone string, n int) string {
	digits := phoneDigits(phone)
	if len(digits) < n {
		return ""
	}
	return digits[len(digits)-n:]
}

// levenshtein computes edit distance with the two-row dynamic programming
// formulation, on bytes of the canonicalized inputs.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
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
