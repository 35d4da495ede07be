// Package domain holds the core entity types and the persistence
// interfaces they are accessed through. It has no dependencies on
// transport, storage, or broadcast code.
package domain
