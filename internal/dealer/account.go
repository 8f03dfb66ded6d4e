package dealer

import "strings"

// CanonicalAccount trims s and, when it is all digits, drops leading zeros so
// "00412" in one export joins "412" in the other.
func CanonicalAccount(s string) string {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return s
	}
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}

// CompareAccounts orders numeric account numbers numerically and everything
// else lexically; numeric accounts sort first.
func CompareAccounts(a, b string) int {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case an:
		return -1
	case bn:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
