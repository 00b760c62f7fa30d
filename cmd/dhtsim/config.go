package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// Algorithm names accepted by the config file.
const (
	AlgorithmRing = "ring"
	AlgorithmRush = "rush"
)

// Config configures a simulation. It can be loaded from a TOML file;
// command-line flags override values from the file.
type Config struct {
	Algorithm     string `toml:"algorithm"`
	Nodes         int    `toml:"nodes"`
	HashSpaceSize int    `toml:"hash_space_size"`
	Replicas      int    `toml:"replicas"`
	Seed          uint64 `toml:"seed"`
	LogLevel      string `toml:"log_level"`
}

// DefaultConfig holds default settings for a simulation.
var DefaultConfig = Config{
	Algorithm:     AlgorithmRing,
	Nodes:         4,
	HashSpaceSize: 4,
	Replicas:      2,
	LogLevel:      "info",
}

// RegisterFlags registers flags for the config into fs. Flag defaults are
// taken from c.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.Nodes, "nodes", c.Nodes, "Number of nodes to start with")
	fs.IntVar(&c.HashSpaceSize, "hash-space-size", c.HashSpaceSize, "Exponent of the hash space; keys are in [0, 2^hash-space-size)")
	fs.IntVar(&c.Replicas, "replicas", c.Replicas, "Replication factor")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Seed for weighted placement")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error")
}

// LoadFile reads the TOML file at path into c. Values for flags which were
// explicitly set in fs are kept.
func (c *Config) LoadFile(path string, fs *pflag.FlagSet) error {
	fromFlags := *c

	var fileConfig Config
	md, err := toml.DecodeFile(path, &fileConfig)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
	}

	for _, key := range md.Keys() {
		switch key.String() {
		case "algorithm":
			c.Algorithm = fileConfig.Algorithm
		case "nodes":
			c.Nodes = fileConfig.Nodes
		case "hash_space_size":
			c.HashSpaceSize = fileConfig.HashSpaceSize
		case "replicas":
			c.Replicas = fileConfig.Replicas
		case "seed":
			c.Seed = fileConfig.Seed
		case "log_level":
			c.LogLevel = fileConfig.LogLevel
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "nodes":
			c.Nodes = fromFlags.Nodes
		case "hash-space-size":
			c.HashSpaceSize = fromFlags.HashSpaceSize
		case "replicas":
			c.Replicas = fromFlags.Replicas
		case "seed":
			c.Seed = fromFlags.Seed
		case "log-level":
			c.LogLevel = fromFlags.LogLevel
		}
	})

	return c.validate()
}

func (c *Config) validate() error {
	switch c.Algorithm {
	case AlgorithmRing, AlgorithmRush:
		return nil
	default:
		return fmt.Errorf("unknown algorithm %q: must be %q or %q", c.Algorithm, AlgorithmRing, AlgorithmRush)
	}
}
