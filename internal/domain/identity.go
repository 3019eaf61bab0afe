package domain

import "fmt"

// Kind distinguishes the two participant ID spaces. A user and a lawyer
// can share the same numeric ID, so an ID is never meaningful on its own.
type Kind string

const (
	KindUser   Kind = "user"
	KindLawyer Kind = "lawyer"
)

// Valid reports whether k is one of the known participant kinds.
func (k Kind) Valid() bool {
	return k == KindUser || k == KindLawyer
}

// ParseKind validates a kind coming from a URL segment or event payload.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown participant kind %q", s)
	}
	return k, nil
}

// Identity identifies a chat participant by (id, kind). Comparable, so it
// can be used directly as a map key in the presence hub.
type Identity struct {
	ID   int  `json:"id"`
	Kind Kind `json:"kind"`
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%d", i.Kind, i.ID)
}

// Valid reports whether the identity carries a positive ID and a known kind.
func (i Identity) Valid() bool {
	return i.ID > 0 && i.Kind.Valid()
}
