package cnab

import "strings"

// padRight space-fills s to width n, truncating on overflow. Text fields.
func padRight(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// padLeft zero-fills s to width n, keeping the rightmost n characters on
// overflow. Numeric fields.
func padLeft(s string, n int) string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return strings.Repeat("0", n-len(s)) + s
}

// zeros returns an all-zero numeric filler of width n.
func zeros(n int) string {
	return strings.Repeat("0", n)
}

// blanks returns an all-space text filler of width n.
func blanks(n int) string {
	return strings.Repeat(" ", n)
}
