package data

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the fixed-width host identifier minted for every synthesized item.
type ID uuid.UUID

// NullID is the zero identifier, used as "no id" marker.
var NullID ID

// NewID mints a fresh, globally unique identifier.
func NewID() ID {
	return ID(uuid.Must(uuid.NewV7()))
}

// DeriveID returns a deterministic identifier for name within namespace.
func DeriveID(namespace ID, name string) ID {
	return ID(uuid.NewSHA1(uuid.UUID(namespace), []byte(name)))
}

// ParseID parses the canonical, braced or urn forms of an identifier.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NullID, fmt.Errorf("%w '%s': %v", ErrInvalidID, s, err)
	}

	return ID(u), nil
}

// MustParseID is like ParseID but panics on malformed input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}

	return id
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) IsNull() bool {
	return id == NullID
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}
