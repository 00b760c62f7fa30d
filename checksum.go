package dht

import (
	"encoding/binary"
	"math"

	"github.com/dgryski/go-farm"
)

// Checksum returns a fingerprint of the topology described by nodes: their
// order, IDs, positions, weights and key counts. Two engines with the same
// checksum place keys the same way with overwhelming probability.
func Checksum(nodes []NodeInfo) uint32 {
	buf := make([]byte, 0, len(nodes)*40)
	for _, n := range nodes {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(n.ID))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(n.Position))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(n.Weight))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(n.Keys)))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(n.Replicas)))
	}
	return farm.Fingerprint32(buf)
}
