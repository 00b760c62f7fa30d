// Command dhtsim simulates key placement on a token ring or a weighted
// placement table through an interactive shell.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rfratto/dht"
	"github.com/rfratto/dht/ring"
	"github.com/rfratto/dht/rush"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		cfg        = DefaultConfig
		configFile string
	)

	run := func(algorithm string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := cfg.LoadFile(configFile, cmd.Flags()); err != nil {
					return err
				}
			}
			if algorithm != "" {
				cfg.Algorithm = algorithm
			}
			return runSimulation(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		}
	}

	cmd := &cobra.Command{
		Use:   "dhtsim",
		Short: "Simulate key placement across storage nodes",
		Long: `dhtsim starts an interactive shell over a placement engine.

Without a subcommand, the algorithm is taken from the config file and
defaults to ring.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run(""),
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a TOML config file")
	cfg.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		&cobra.Command{
			Use:          "ring",
			Short:        "Simulate a token ring with successor replication",
			Args:         cobra.NoArgs,
			SilenceUsage: true,
			RunE:         run(AlgorithmRing),
		},
		&cobra.Command{
			Use:          "rush",
			Short:        "Simulate a weighted placement table",
			Args:         cobra.NoArgs,
			SilenceUsage: true,
			RunE:         run(AlgorithmRush),
		},
	)

	return cmd
}

func runSimulation(cfg Config, in io.Reader, out, errOut io.Writer) error {
	l, err := newLogger(errOut, cfg.LogLevel)
	if err != nil {
		return err
	}

	b, err := newBackend(cfg, l)
	if err != nil {
		return err
	}

	sh, err := newShell(l, b, out)
	if err != nil {
		return err
	}

	level.Info(l).Log("msg", "starting shell", "algorithm", cfg.Algorithm, "nodes", cfg.Nodes, "hash_space_size", cfg.HashSpaceSize, "replicas", cfg.Replicas)
	return sh.Run(in)
}

func newBackend(cfg Config, l log.Logger) (*backend, error) {
	params := dht.Params{
		Nodes:             cfg.Nodes,
		HashSpaceSize:     cfg.HashSpaceSize,
		ReplicationFactor: cfg.Replicas,
	}

	switch cfg.Algorithm {
	case AlgorithmRing:
		r, err := ring.New(ring.Config{
			Params: params,
			Log:    log.With(l, "engine", AlgorithmRing),
		})
		if err != nil {
			return nil, err
		}
		return newRingBackend(r), nil

	case AlgorithmRush:
		t, err := rush.New(rush.Config{
			Params: params,
			Log:    log.With(l, "engine", AlgorithmRush),
			Seed:   cfg.Seed,
		})
		if err != nil {
			return nil, err
		}
		return newRushBackend(t), nil

	default:
		return nil, fmt.Errorf("unknown algorithm %q", cfg.Algorithm)
	}
}
