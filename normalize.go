package sheetmagic

import "strings"

// Normalize returns the canonical form used to compare headers with field
// names. It lower-cases the text, keeps ASCII letters and digits only, strips
// a leading run of digits and drops a single trailing "s" unless the text ends
// in "ss".
//
//	Normalize("Leg_Count")  // "legcount"
//	Normalize("LegCounts")  // "legcount"
//	Normalize("Status")     // "statu"
//	Normalize("Address")    // "address"
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}

	s := strings.TrimLeft(b.String(), "0123456789")
	if strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") {
		s = s[:len(s)-1]
	}
	return s
}

// Matches reports whether a and b normalize to the same text.
func Matches(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
