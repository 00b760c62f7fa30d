package dht

import "fmt"

// Status is the lifecycle state of a node inside an engine.
type Status uint

const (
	// StatusRunning is the default state. Running nodes own and hold keys.
	StatusRunning Status = iota

	// StatusRemoved marks a node that has been unlinked from its engine. Its
	// keys have been handed to the remaining nodes.
	StatusRemoved
)

// String returns the string representation of s.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusRemoved:
		return "REMOVED"
	default:
		return fmt.Sprintf("<unknown status %d>", s)
	}
}
