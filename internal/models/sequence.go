package models

import "fmt"

// EntityClass identifies a category of record with its own identifier format.
type EntityClass string

const (
	EntityClassJobPosting EntityClass = "job_posting"
	EntityClassAsset      EntityClass = "asset"
)

// IdentifierFormat describes the human-readable identifier layout of a class.
type IdentifierFormat struct {
	Prefix string
	Digits int
}

// Format renders the identifier for a year and sequence number.
func (f IdentifierFormat) Format(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%0*d", f.Prefix, year, f.Digits, seq)
}

// FormatFor returns the identifier format for the given entity class, or false
// when the class has no human-readable identifier.
func FormatFor(class EntityClass) (IdentifierFormat, bool) {
	switch class {
	case EntityClassJobPosting:
		return IdentifierFormat{Prefix: "JOB", Digits: 4}, true
	case EntityClassAsset:
		return IdentifierFormat{Prefix: "ASSET", Digits: 6}, true
	}
	return IdentifierFormat{}, false
}
