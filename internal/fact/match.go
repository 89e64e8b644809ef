package fact

import "mud-platform-backend/internal/entity"

// Match reports whether candidate satisfies pattern: every non-wildcard
// position of pattern must equal the corresponding position of
// candidate, and every wildcard position in pattern extracts a binding
// (for BoundParameter entities) or is accepted unconditionally (for
// AnyValue). On success it returns the bindings discovered by this
// match, merged on top of the bindings already known.
func Match(pattern, candidate Fact, bindings map[string]entity.Entity) (map[string]entity.Entity, bool) {
	if pattern.Predicate.Name != candidate.Predicate.Name {
		return nil, false
	}
	if len(pattern.Arguments) != len(candidate.Arguments) {
		return nil, false
	}
	out := cloneBindings(bindings)
	for i, pa := range pattern.Arguments {
		ca := candidate.Arguments[i]
		if !matchEntity(pa, ca, out) {
			return nil, false
		}
	}
	if pattern.Fluent != nil {
		if candidate.Fluent == nil {
			return nil, false
		}
		if pattern.FluentNegated {
			// `f(x) != v`: candidate's fluent must differ from the
			// pattern's (resolved) fluent value.
			resolved := resolveWithBindings(*pattern.Fluent, out)
			if resolved.Kind == entity.Concrete && candidate.Fluent.Equal(resolved) {
				return nil, false
			}
		} else if !matchEntity(*pattern.Fluent, *candidate.Fluent, out) {
			return nil, false
		}
	}
	return out, true
}

func matchEntity(pattern, candidate entity.Entity, bindings map[string]entity.Entity) bool {
	switch pattern.Kind {
	case entity.AnyValue:
		return true
	case entity.BoundParameter:
		if existing, ok := bindings[pattern.Value]; ok {
			return existing.Equal(candidate) || existing.IsWildcard()
		}
		bindings[pattern.Value] = candidate
		return true
	default: // Concrete
		return pattern.Equal(candidate)
	}
}

func resolveWithBindings(e entity.Entity, bindings map[string]entity.Entity) entity.Entity {
	if e.Kind == entity.BoundParameter {
		if v, ok := bindings[e.Value]; ok {
			return v
		}
	}
	return e
}

func cloneBindings(b map[string]entity.Entity) map[string]entity.Entity {
	out := make(map[string]entity.Entity, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}
