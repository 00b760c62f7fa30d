package main

import (
	"fmt"
	"strconv"

	"github.com/rfratto/dht"
	"github.com/rfratto/dht/ring"
	"github.com/rfratto/dht/rush"
)

// report is the outcome of a load balance.
type report struct {
	records []dht.Relocation
	weights []rush.Weight
}

// backend adapts an engine to the shell. Commands common to every engine go
// through dht.Engine; the rest are engine-specific.
type backend struct {
	name   string
	engine dht.Engine

	// addValue converts the arguments of the add command into the value
	// passed to AddNode.
	addValue func(args []string) (int, error)

	balance     func(args []string) (report, error)
	autobalance func() (report, error)

	columns []string
	row     func(n dht.NodeInfo) []string
}

func newRingBackend(r *ring.Ring) *backend {
	return &backend{
		name:   AlgorithmRing,
		engine: r,

		addValue: func(args []string) (int, error) {
			vs, err := parseInts(args, 1, "add <position>")
			if err != nil {
				return 0, err
			}
			return vs[0], nil
		},

		balance: func(args []string) (report, error) {
			vs, err := parseInts(args, 2, "balance <busy position> <idle position>")
			if err != nil {
				return report{}, err
			}
			records, err := r.LoadBalance(vs[0], vs[1])
			return report{records: records}, err
		},

		autobalance: func() (report, error) {
			busy, idle, ok := dht.MostImbalanced(r.Nodes())
			if !ok {
				return report{}, fmt.Errorf("need at least two nodes to balance")
			}
			records, err := r.LoadBalance(busy.Position, idle.Position)
			return report{records: records}, err
		},

		columns: []string{"ID", "POSITION", "STATUS", "PRIMARY", "REPLICAS"},
		row: func(n dht.NodeInfo) []string {
			return []string{
				strconv.Itoa(n.ID),
				strconv.Itoa(n.Position),
				n.Status.String(),
				strconv.Itoa(len(n.Keys)),
				strconv.Itoa(len(n.Replicas)),
			}
		},
	}
}

// autobalanceShare is the fraction of the busiest node's weight handed to
// the idlest node by autobalance on a weighted table.
const autobalanceShare = 0.1

func newRushBackend(t *rush.Table) *backend {
	return &backend{
		name:   AlgorithmRush,
		engine: t,

		addValue: func(args []string) (int, error) {
			if len(args) == 0 {
				return t.NextID(), nil
			}
			vs, err := parseInts(args, 1, "add [id]")
			if err != nil {
				return 0, err
			}
			return vs[0], nil
		},

		balance: func(args []string) (report, error) {
			const usage = "balance <over id> <over weight> <under id> <under weight>"
			if len(args) != 4 {
				return report{}, fmt.Errorf("usage: %s", usage)
			}
			ids, err := parseInts([]string{args[0], args[2]}, 2, usage)
			if err != nil {
				return report{}, err
			}
			overWeight, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return report{}, fmt.Errorf("invalid weight %q: %w", args[1], err)
			}
			underWeight, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return report{}, fmt.Errorf("invalid weight %q: %w", args[3], err)
			}

			weights, records, err := t.LoadBalance(ids[0], overWeight, ids[1], underWeight)
			return report{records: records, weights: weights}, err
		},

		autobalance: func() (report, error) {
			busy, idle, ok := dht.MostImbalanced(t.Nodes())
			if !ok {
				return report{}, fmt.Errorf("need at least two nodes to balance")
			}
			shift := busy.Weight * autobalanceShare
			weights, records, err := t.LoadBalance(busy.ID, busy.Weight-shift, idle.ID, idle.Weight+shift)
			return report{records: records, weights: weights}, err
		},

		columns: []string{"ID", "WEIGHT", "PRIMARY", "REPLICAS", "HELD", "CAPACITY"},
		row: func(n dht.NodeInfo) []string {
			return []string{
				strconv.Itoa(n.ID),
				strconv.FormatFloat(n.Weight, 'f', 4, 64),
				strconv.Itoa(len(n.Keys)),
				strconv.Itoa(len(n.Replicas)),
				strconv.Itoa(n.SpaceUsed()),
				strconv.Itoa(t.Threshold()),
			}
		},
	}
}

// parseInts parses exactly n integer arguments.
func parseInts(args []string, n int, usage string) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	res := make([]int, n)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", arg, err)
		}
		res[i] = v
	}
	return res, nil
}
