package router

import (
	"strconv"
	"strings"
)

// ParseVersion reads the numeric major.minor.patch prefix of a version
// string such as "7.10.2" or "8.0.0-SNAPSHOT". Missing components are 0.
// ok is false when the major component is not a number.
func ParseVersion(v string) (parts [3]int, ok bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, s := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return parts, i > 0
		}
		parts[i] = n
	}
	return parts, true
}

// Compare orders two versions like semver cores. An unparseable version
// compares as 0 against anything so that no bound rule matches it.
func Compare(a, b string) int {
	pa, okA := ParseVersion(a)
	pb, okB := ParseVersion(b)
	if !okA || !okB {
		return 0
	}
	for i := range pa {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}
