package lockman

import (
	"fmt"

	"github.com/google/uuid"
)

// BoundaryID is an opaque, hashable, thread-shareable scope tag supplied by
// the caller. Two boundary values compare equal only if both their dynamic
// type and value match — comparing Go `any` values via == does exactly this,
// so no erasure wrapper is needed the way a type-erased AnyHashable is in
// languages without a structural any/interface comparison.
//
// The underlying dynamic type supplied by the caller must be comparable
// (string, int, a comparable struct, ...). A non-comparable dynamic type
// will panic the first time it is used as a map key, the same way it would
// panic in any other Go map.
type BoundaryID = any

// ActionID names an action kind. It is not unique: two concurrent
// invocations of the same action (e.g. "login") share an ActionID.
type ActionID string

// GroupID is a hashable, thread-shareable group tag. A coordinated action
// may belong to 1-5 groups at once (see groupcoordination.Info).
type GroupID = any

// StrategyID identifies a registered strategy as "name[:configuration]".
// Composite strategies compose child ids as "CompositeN:id1+id2+...".
// Equality is textual.
type StrategyID string

// UniqueID is a freshly minted, globally unique token stamped on every
// lock-info the moment it is constructed. Two lock-infos are equal iff their
// UniqueIDs match; it is the only handle used to release a specific
// acquisition.
type UniqueID struct {
	id uuid.UUID
}

// NewUniqueID mints a fresh UniqueID. Called once per lock-info construction.
func NewUniqueID() UniqueID {
	return UniqueID{id: uuid.New()}
}

// String renders the UniqueID for diagnostics and log lines.
func (u UniqueID) String() string {
	return u.id.String()
}

// IsZero reports whether u was never assigned by NewUniqueID.
func (u UniqueID) IsZero() bool {
	return u.id == uuid.Nil
}

// CompositeStrategyID builds the id of an N-ary composite from its children's
// ids, in declared order: "CompositeN:id1+id2+...".
func CompositeStrategyID(children ...StrategyID) StrategyID {
	s := fmt.Sprintf("Composite%d:", len(children))
	for i, c := range children {
		if i > 0 {
			s += "+"
		}
		s += string(c)
	}
	return StrategyID(s)
}
