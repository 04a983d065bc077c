// Package naturalsort orders strings by alternating text and number chunks,
// so "img2.jpg" sorts before "img10.jpg".
package naturalsort

import "sort"

// Compare returns -1, 0, or 1 comparing a and b in natural order.
func Compare(a, b string) int {
	for len(a) > 0 && len(b) > 0 {
		aChunk, aNum, aRest := nextChunk(a)
		bChunk, bNum, bRest := nextChunk(b)

		switch {
		case aNum && bNum:
			if c := compareNumeric(aChunk, bChunk); c != 0 {
				return c
			}
		case aNum != bNum:
			// Text chunks sort before numeric ones, so "img.jpg" comes
			// before "img1.jpg".
			if aNum {
				return 1
			}
			return -1
		default:
			if aChunk != bChunk {
				if aChunk < bChunk {
					return -1
				}
				return 1
			}
		}
		a, b = aRest, bRest
	}

	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return -1
	default:
		return 1
	}
}

// Sort sorts the slice in place in natural order.
func Sort(items []string) {
	sort.Slice(items, func(i, j int) bool {
		return Compare(items[i], items[j]) < 0
	})
}

// nextChunk splits off the leading run of digits or non-digits.
func nextChunk(s string) (chunk string, isNum bool, rest string) {
	if len(s) == 0 {
		return "", false, ""
	}
	isNum = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == isNum {
		i++
	}
	return s[:i], isNum, s[i:]
}

// compareNumeric compares two digit runs by value without parsing, which
// keeps arbitrarily long runs exact.
func compareNumeric(a, b string) int {
	a = trimLeadingZeros(a)
	b = trimLeadingZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	if a != b {
		if a < b {
			return -1
		}
		return 1
	}
	return 0
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
