// Package backend selects and constructs the record store implementation.
package backend

import (
	"lorryboard/internal/records"
)

// Backend is the full store surface the servers and workers wire up.
type Backend = records.Store

// Type represents the kind of record store backing the application.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific: directory holding deliveries.json/lorries.json
	DataDirectory string
}
