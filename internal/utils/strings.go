package utils

import "strings"

// NormalizeSeatCode canonicalizes a seat code for comparisons and storage.
func NormalizeSeatCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeSeatCodes cleans a seat list, dropping empties. It does not
// deduplicate; callers that must reject duplicates check for themselves.
func NormalizeSeatCodes(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = NormalizeSeatCode(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// HasDuplicates reports whether the slice contains a repeated value.
func HasDuplicates(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

// JoinSeats renders a seat list for logs and ticket payloads.
func JoinSeats(seats []string) string {
	return strings.Join(seats, ",")
}
