package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rfratto/dht"
)

var errExit = errors.New("exit requested")

const shellHelp = `Commands:
  add <value>           add a node (ring: position, rush: optional id)
  remove <value>        remove a node (ring: position, rush: id)
  search <key>          list the nodes holding key
  balance <args...>     load balance (ring: <busy> <idle> positions,
                        rush: <over id> <weight> <under id> <weight>)
  autobalance           load balance the busiest and idlest node
  plan <args...>        show what balance would do without applying it
  list [keys]           list nodes, optionally with their keys
  checkpoint            remember the current state
  rollback              return to the last checkpoint
  metrics               print metrics
  help                  print this message
  exit                  quit
`

// shell is a line-oriented interface to a single engine.
type shell struct {
	log     log.Logger
	backend *backend
	reg     *prometheus.Registry
	out     io.Writer

	checkpoint []byte
}

func newShell(l log.Logger, b *backend, out io.Writer) (*shell, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(b.engine.Metrics()); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	b.engine.Observe(dht.MembershipObserver(dht.FuncObserver(func(nodes []dht.NodeInfo) {
		level.Debug(l).Log("msg", "membership changed", "engine", b.name, "nodes", len(nodes), "checksum", fmt.Sprintf("%08x", dht.Checksum(nodes)))
	})))

	return &shell{
		log:     l,
		backend: b,
		reg:     reg,
		out:     out,
	}, nil
}

// Run reads commands from in until it is exhausted or exit is requested.
// Command failures are reported and do not stop the shell.
func (s *shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(s.out, "%s> ", s.backend.name)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		err := s.Exec(fields[0], fields[1:])
		switch {
		case errors.Is(err, errExit):
			return nil
		case err != nil:
			fmt.Fprintf(s.out, "error: %s\n", err)
		}
	}
}

// Exec runs a single command.
func (s *shell) Exec(cmd string, args []string) error {
	eng := s.backend.engine

	switch cmd {
	case "add":
		v, err := s.backend.addValue(args)
		if err != nil {
			return err
		}
		records, err := eng.AddNode(v)
		if err != nil {
			return err
		}
		writeRecords(s.out, records)

	case "remove":
		vs, err := parseInts(args, 1, "remove <value>")
		if err != nil {
			return err
		}
		records, err := eng.RemoveNode(vs[0])
		if errors.Is(err, dht.ErrNotFound) {
			fmt.Fprintf(s.out, "node %d was not found\n", vs[0])
			return nil
		} else if err != nil {
			return err
		}
		writeRecords(s.out, records)

	case "search":
		vs, err := parseInts(args, 1, "search <key>")
		if err != nil {
			return err
		}
		holders, err := eng.Search(vs[0])
		if errors.Is(err, dht.ErrNotFound) {
			fmt.Fprintf(s.out, "key %d was not found\n", vs[0])
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "key %d is held by nodes %s\n", vs[0], joinInts(holders))

	case "balance":
		rep, err := s.backend.balance(args)
		if err != nil {
			return err
		}
		writeReport(s.out, rep)

	case "autobalance":
		rep, err := s.backend.autobalance()
		if err != nil {
			return err
		}
		writeReport(s.out, rep)

	case "plan":
		return s.plan(args)

	case "list":
		detail := len(args) > 0 && args[0] == "keys"
		writeNodes(s.out, s.backend, eng.Nodes(), detail)

	case "checkpoint":
		buf, err := eng.Snapshot()
		if err != nil {
			return err
		}
		s.checkpoint = buf
		fmt.Fprintf(s.out, "checkpoint saved (%d bytes)\n", len(buf))

	case "rollback":
		if s.checkpoint == nil {
			return fmt.Errorf("no checkpoint to roll back to")
		}
		if err := eng.Restore(s.checkpoint); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "rolled back to checkpoint")

	case "metrics":
		return s.writeMetrics()

	case "help":
		fmt.Fprint(s.out, shellHelp)

	case "exit", "quit":
		return errExit

	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}

	return nil
}

// plan runs a load balance and rolls it back, showing its outcome without
// keeping it.
func (s *shell) plan(args []string) error {
	eng := s.backend.engine

	buf, err := eng.Snapshot()
	if err != nil {
		return err
	}

	rep, balanceErr := s.backend.balance(args)
	if err := eng.Restore(buf); err != nil {
		return fmt.Errorf("failed to roll back plan: %w", err)
	}
	if balanceErr != nil {
		return balanceErr
	}

	fmt.Fprintln(s.out, "planned, not applied:")
	writeReport(s.out, rep)
	level.Debug(s.log).Log("msg", "planned load balance", "records", len(rep.records), "keys", dht.MovedKeys(rep.records))
	return nil
}

func (s *shell) writeMetrics() error {
	mfs, err := s.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(s.out, mf); err != nil {
			return err
		}
	}
	return nil
}

func joinInts(vs []int) string {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = strconv.Itoa(v)
	}
	return strings.Join(ss, ", ")
}
