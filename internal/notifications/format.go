package notifications

import (
	"fmt"
	"strings"
)

// SafeFormat substitutes every {key} placeholder in template with the matching
// value from params. Placeholders without a matching key are left verbatim,
// braces included, so partially specified events still produce readable
// output. "{{" and "}}" render as literal braces. Unbalanced braces are copied
// through. Substituted values are not rescanned. SafeFormat never fails.
func SafeFormat(template string, params Params) string {
	if !strings.ContainsAny(template, "{}") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template) + 16)

	rest := template
	for {
		at := strings.IndexAny(rest, "{}")
		if at < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:at])
		rest = rest[at:]

		if len(rest) > 1 && rest[1] == rest[0] {
			b.WriteByte(rest[0])
			rest = rest[2:]
			continue
		}
		if rest[0] == '}' {
			b.WriteByte('}')
			rest = rest[1:]
			continue
		}

		end := strings.IndexByte(rest[1:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		key := rest[1 : end+1]
		// A nested '{' means this brace opens nothing; emit it and rescan from
		// the next one.
		if strings.IndexByte(key, '{') >= 0 {
			b.WriteByte('{')
			rest = rest[1:]
			continue
		}

		if value, ok := params[key]; ok && key != "" {
			b.WriteString(fmt.Sprint(value))
		} else {
			b.WriteString(rest[:end+2])
		}
		rest = rest[end+2:]
	}
	return b.String()
}
