// Package uritemplate compiles the runtime's minimal URI-template dialect
// into a regular expression plus an ordered list of capture names. It is
// shared by internal/config (I4, load-time compile check) and
// internal/resource (§4.O, routing), grounded on
// original_source/.../pforge-runtime/src/resource.rs's segment-to-regex
// compiler.
package uritemplate

import (
	"fmt"
	"regexp"
	"strings"
)

// regexSpecial is the set of characters compile must literal-escape outside
// of a {name} capture.
const regexSpecial = `.*+?^$[](){}|\`

// Compile turns a URI template such as "file:///{path}" or
// "users/{id}/posts/{slug}" into a regular expression and the ordered names
// of its capture groups. A segment of the form {name} followed by '/'
// compiles to a single-segment [^/]+ match; otherwise it compiles to a
// greedy, trailing .+ match. All other characters are literal (regex
// metacharacters are escaped).
func Compile(template string) (*regexp.Regexp, []string, error) {
	var pattern strings.Builder
	pattern.WriteByte('^')
	var names []string

	runes := []rune(template)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch != '{' {
			if strings.ContainsRune(regexSpecial, ch) {
				pattern.WriteByte('\\')
			}
			pattern.WriteRune(ch)
			continue
		}

		j := i + 1
		for j < len(runes) && runes[j] != '}' {
			j++
		}
		if j >= len(runes) {
			return nil, nil, fmt.Errorf("unterminated parameter in URI template %q", template)
		}
		name := string(runes[i+1 : j])
		if name == "" {
			return nil, nil, fmt.Errorf("empty parameter name in URI template %q", template)
		}
		names = append(names, name)

		if j+1 < len(runes) && runes[j+1] == '/' {
			pattern.WriteString("([^/]+)")
		} else {
			pattern.WriteString("(.+)")
		}
		i = j
	}
	pattern.WriteByte('$')

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, nil, fmt.Errorf("compile URI template %q: %w", template, err)
	}
	return re, names, nil
}
