package dht

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// MaxHashSpaceSize is the largest supported hash space exponent.
const MaxHashSpaceSize = 30

// Params are the construction parameters shared by both engines.
type Params struct {
	// Number of nodes to provision at construction. Required.
	Nodes int

	// Exponent of the hash space: the engine covers keys [0, 2^HashSpaceSize).
	HashSpaceSize int

	// Total number of holders for every key. Must be at least 1 and may not
	// exceed Nodes.
	ReplicationFactor int
}

// Length returns the size of the hash space, 2^HashSpaceSize.
func (p Params) Length() int { return 1 << uint(p.HashSpaceSize) }

// Validate returns an error wrapping ErrInvalidConfiguration which lists
// every problem with p.
func (p Params) Validate() error {
	var errs *multierror.Error

	if p.ReplicationFactor <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("replication factor must be at least 1, got %d", p.ReplicationFactor))
	}
	if p.Nodes <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one node is required, got %d", p.Nodes))
	} else if p.ReplicationFactor > p.Nodes {
		errs = multierror.Append(errs, fmt.Errorf("replication factor %d exceeds node count %d", p.ReplicationFactor, p.Nodes))
	}
	if p.HashSpaceSize < 0 || p.HashSpaceSize > MaxHashSpaceSize {
		errs = multierror.Append(errs, fmt.Errorf("hash space size must be in [0, %d], got %d", MaxHashSpaceSize, p.HashSpaceSize))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
	}
	return nil
}
