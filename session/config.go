package session

import (
	"io"

	"github.com/BurntSushi/toml"
)

// Limits mirrors interp.Limits for TOML decoding; kept as a distinct type
// (rather than a type alias) so the session package's public surface
// doesn't leak the interp package's exact layout to config file authors.
type Limits struct {
	MaxLoopIterations int `toml:"max_loop_iterations"`
	MaxRecursionDepth int `toml:"max_recursion_depth"`
	MaxPatternSpace   int `toml:"max_pattern_space"`
	MaxOutputBytes    int `toml:"max_output_bytes"`
}

// SeedEntry populates the Session's virtual filesystem before the first
// Exec call, the declarative "fixture" a config file can describe instead
// of requiring Go code to call WriteFile/Mkdir directly.
type SeedEntry struct {
	Path     string `toml:"path"`
	Dir      bool   `toml:"dir"`
	Contents string `toml:"contents"`
}

// NetworkConfig gates registration of network-capable registry commands;
// its mere presence (non-nil) is the signal RegisterNetworkCommand checks,
// matching spec.md §6's optional register_network_command hook. Fields are
// intentionally sparse: the interpreter core has no networking of its own
// (a Non-goal), so this only carries enough to let a registered command
// decide its own policy.
type NetworkConfig struct {
	AllowedHosts []string `toml:"allowed_hosts"`
}

// Config is the declarative description of a Session, loadable from a TOML
// document the way cc-allow loads its own allow/deny rule files.
type Config struct {
	Env     []string       `toml:"env"`
	Dir     string         `toml:"dir"`
	Limits  Limits         `toml:"limits"`
	Seed    []SeedEntry    `toml:"seed"`
	Network *NetworkConfig `toml:"network"`
}

// LoadConfig decodes a TOML document into a Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	_, err := toml.NewDecoder(r).Decode(&cfg)
	return cfg, err
}
