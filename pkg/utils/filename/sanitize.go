// Package filename provides utilities for sanitizing strings into safe filenames.
package filename

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// placeholder marks a character that is still subject to collapsing and
// trimming. It is always followed by exactly one rune.
const placeholder = '\x00'

// timestampRe matches digit groups joined by colons, e.g. "12:34:56".
var timestampRe = regexp.MustCompile(`[0-9]+(?::[0-9]+)+`)

var accents = map[rune]string{
	'Â': "A", 'Ã': "A", 'Ä': "A", 'À': "A", 'Á': "A", 'Å': "A", 'Æ': "AE",
	'Ç': "C", 'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I", 'Ð': "D", 'Ñ': "N",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Õ': "O", 'Ö': "O", 'Ő': "O", 'Ø': "O", 'Œ': "OE",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U", 'Ű': "U", 'Ý': "Y", 'Þ': "TH", 'ß': "ss",
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a", 'æ': "ae",
	'ç': "c", 'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i", 'ð': "d", 'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ő': "o", 'ø': "o", 'œ': "oe",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u", 'ű': "u", 'ý': "y", 'þ': "th", 'ÿ': "y",
}

// lookalikes keeps reserved characters readable in unrestricted mode.
var lookalikes = map[rune]string{
	'"':  "＂",
	'*':  "＊",
	':':  "：",
	'<':  "＜",
	'>':  "＞",
	'?':  "？",
	'|':  "｜",
	'/':  "⧸",
	'\\': "⧹",
}

// invisible covers control, format, surrogate, private-use and mark categories.
var invisible = []*unicode.RangeTable{
	unicode.Cc, unicode.Cf, unicode.Cs, unicode.Co,
	unicode.Mc, unicode.Me, unicode.Mn,
}

// Sanitize converts an arbitrary title into a filesystem-safe name.
//
// With restricted set the result is ASCII-only and safe on Windows; otherwise
// Unicode is kept and only reserved characters are swapped for fullwidth
// lookalikes. The result is never empty.
func Sanitize(title string, restricted bool) string {
	s := title
	if restricted {
		s = norm.NFKC.String(s)
	}

	s = timestampRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ":", "_")
	})

	var b strings.Builder
	for _, r := range s {
		b.WriteString(replaceRune(r, restricted))
	}

	rs := dedupPlaceholders([]rune(b.String()))
	rs = stripPlaceholders(rs)
	s = strings.ReplaceAll(string(rs), string(placeholder), "")

	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")

	if restricted && strings.HasPrefix(s, "-_") {
		s = s[2:]
	}
	if strings.HasPrefix(s, "-") {
		s = "_" + s[1:]
	}
	s = strings.TrimLeft(s, ".")

	if s == "" {
		return "_"
	}
	return s
}

func replaceRune(r rune, restricted bool) string {
	if restricted {
		if folded, ok := accents[r]; ok {
			return folded
		}
	} else {
		if r == '\n' {
			return string(placeholder) + " "
		}
		if sub, ok := lookalikes[r]; ok {
			return sub
		}
	}

	switch {
	case r == '?' || r <= 0x1f || r == 0x7f:
		return ""
	case restricted && r > 0x7f && unicode.IsOneOf(invisible, r):
		return ""
	case r == '"':
		if restricted {
			return ""
		}
		return "'"
	case r == ':':
		if restricted {
			return string(placeholder) + "_" + string(placeholder) + "-"
		}
		return string(placeholder) + " " + string(placeholder) + "-"
	case strings.ContainsRune(`\/|*<>`, r):
		return string(placeholder) + "_"
	}

	if restricted {
		if r == ' ' || strings.ContainsRune("!&'()[]{};1^,#", r) {
			return string(placeholder) + "_"
		}
		if r > 0x7f {
			return string(placeholder) + "_"
		}
	}
	return string(r)
}

// dedupPlaceholders collapses runs of the same placeholder token into one.
func dedupPlaceholders(rs []rune) []rune {
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		if rs[i] == placeholder && i+1 < len(rs) {
			n := len(out)
			if n >= 2 && out[n-2] == placeholder && out[n-1] == rs[i+1] {
				i++
				continue
			}
			out = append(out, rs[i], rs[i+1])
			i++
			continue
		}
		out = append(out, rs[i])
	}
	return out
}

// stripPlaceholders drops a leading placeholder run and a trailing run of
// placeholders, spaces, underscores and hyphens.
func stripPlaceholders(rs []rune) []rune {
	start := 0
	if len(rs) >= 2 && rs[0] == placeholder {
		start = 2
		for start < len(rs) {
			if rs[start] == placeholder && start+1 < len(rs) {
				start += 2
				continue
			}
			if isFiller(rs[start]) {
				start++
				continue
			}
			break
		}
	}

	end := len(rs)
	for end > start && (rs[end-1] == placeholder || isFiller(rs[end-1])) {
		end--
	}
	return rs[start:end]
}

func isFiller(r rune) bool {
	return r == ' ' || r == '_' || r == '-'
}
