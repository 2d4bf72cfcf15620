package ocr

import "strings"

// DefaultLanguage is used when a language code normalizes to nothing.
const DefaultLanguage = "eng"

// NormalizeLanguage canonicalizes free-form language input: lowercase, keep
// only runs of [a-z+], join the runs with "+". Empty parts are dropped and
// an empty result falls back to "eng".
//
//	"eng（数字中心）" -> "eng"
//	"jpn, 日本語"     -> "jpn"
//	"ENG + jpn"       -> "eng+jpn"
func NormalizeLanguage(s string) string {
	s = strings.ToLower(s)

	var parts []string
	var cur strings.Builder
	flush := func() {
		for _, p := range strings.Split(cur.String(), "+") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		cur.Reset()
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || r == '+' {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	if len(parts) == 0 {
		return DefaultLanguage
	}
	return strings.Join(parts, "+")
}
