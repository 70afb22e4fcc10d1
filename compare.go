package secretstore

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b hold the same bytes.
//
// Inputs of different length return false immediately; lengths are not
// secret. For equal lengths every byte of both inputs is read exactly once
// and the result is decided only after the full scan, so the running time
// depends on len(a) alone and not on where (or whether) the inputs differ.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return subtle.ConstantTimeByteEq(diff, 0) == 1
}

// allMatch folds match bits without short-circuiting on the first false.
func allMatch(matches []bool) bool {
	ok := 1
	for _, m := range matches {
		ok &= boolToInt(m)
	}
	return ok == 1
}

func boolToInt(b bool) int {
	// Compiles to SETcc/CSET on amd64 and arm64, not a jump.
	var i int
	if b {
		i = 1
	}
	return i
}
