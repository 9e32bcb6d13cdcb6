package rules

import "strconv"

// CanonicalPair orders two user ids so that (a, b) and (b, a) map to the same pair.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// PairKey is the order-independent identifier of an unordered pair, e.g. "12:40".
func PairKey(a, b int64) string {
	lo, hi := CanonicalPair(a, b)
	return strconv.FormatInt(lo, 10) + ":" + strconv.FormatInt(hi, 10)
}
