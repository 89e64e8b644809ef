// Package pddl implements the text parser and serializer for the PDDL
// dialect of spec.md §6: domain/problem/action/durative-action/event
// definitions, the persist/oneStepTowards/__PRIORITIZED goal wrappers,
// the ~punctual~ fact prefix, and the undefined fluent literal. A
// `:constraints` block (sometime-after ordering) is not parsed.
package pddl

import "strings"

// tokenize splits PDDL source into parentheses, atoms, and the two
// comment tags the dialect gives meaning to (__PRIORITIZED,
// __POTENTIALLY). Every other `;` comment runs to end of line and is
// discarded, matching the reference dialect's informal comment syntax.
func tokenize(src string) []string {
	var tokens []string
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '(' || c == ')':
			tokens = append(tokens, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == ';':
			rest := src[i+1:]
			if tag, skip, ok := matchTag(rest); ok {
				tokens = append(tokens, tag)
				i += 1 + skip
				continue
			}
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				i = n
			} else {
				i += j
			}
		default:
			j := i
			for j < n && !isDelimiter(src[j]) {
				j++
			}
			tokens = append(tokens, src[i:j])
			i = j
		}
	}
	return tokens
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', ' ', '\t', '\r', '\n', ';':
		return true
	default:
		return false
	}
}

func matchTag(s string) (tag string, consumed int, ok bool) {
	trimmed := strings.TrimLeft(s, " \t")
	leading := len(s) - len(trimmed)
	for _, candidate := range []string{"__PRIORITIZED", "__POTENTIALLY"} {
		if strings.HasPrefix(trimmed, candidate) {
			return candidate, leading + len(candidate), true
		}
	}
	return "", 0, false
}
