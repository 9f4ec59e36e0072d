package extraction

// Levenshtein returns the unit-cost edit distance between a and b, counted
// in runes.
func Levenshtein(a, b string) int {
	return levenshteinRunes([]rune(a), []rune(b))
}

func levenshteinRunes(a, b []rune) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
		dp[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dp[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			dp[i][j] = min(dp[i-1][j]+1, dp[i][j-1]+1, dp[i-1][j-1]+cost)
		}
	}
	return dp[len(a)][len(b)]
}

// NormalizedDistance is the edit distance divided by the longer length.
// Two empty strings are at distance 0.
func NormalizedDistance(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	return float64(levenshteinRunes(ra, rb)) / float64(longest)
}

// IsSimilar reports whether a and b are closer than threshold.
func IsSimilar(a, b string, threshold float64) bool {
	return NormalizedDistance(a, b) < threshold
}
