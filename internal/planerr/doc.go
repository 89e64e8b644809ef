// Package planerr implements spec.md §7's error taxonomy.
//
// # Categories
//
//   - Parse: malformed PDDL source
//   - Ontology: type/arity/fluent violations at fact or predicate
//     construction
//   - Reference: an action id or predicate name the ontology doesn't
//     know about
//   - Invariant: an internal consistency check failed; treated as a
//     programming bug rather than caller input
//
// Planning termination with no viable action for a goal is not an error
// in this taxonomy: the planner returns an empty Plan and the goal
// remains in the stack unless dropped by inactivity.
//
// # Usage
//
//	if _, ok := store.Type(name); !ok {
//	    return planerr.Ontology("unknown type %q", name)
//	}
//
//	if err := domain.ValidateReference(actionID); err != nil {
//	    return planerr.Reference("unknown action id %q", actionID)
//	}
//
// cmd/plannerd's HTTP handlers call planerr.RespondWithError, which maps
// Kind to a status code and writes a JSON error body.
package planerr
