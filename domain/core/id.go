package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// DistrictID identifies a row of the districts table
type DistrictID ID

func (id DistrictID) String() string { return ID(id).String() }

// ParseDistrictID parses a string into DistrictID
func ParseDistrictID(s string) (DistrictID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: district ID cannot be empty", ErrInvalidInput)
	}
	return DistrictID(strings.TrimSpace(s)), nil
}

// IDSource produces identifiers. Tests swap it for a deterministic sequence.
type IDSource func() ID
