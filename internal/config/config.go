// Package config loads the handful of environment-variable knobs the CLI
// shell reads before running the compiler and VM. Everything the core
// itself needs to behave identically across runs — stack capacity, table
// growth policy, opcode numbering — is a compile-time constant, not
// configuration; only ambient, host-level behavior (tracing, a runaway-loop
// guard) is exposed here.
package config

import "github.com/caarlos0/env/v6"

// Config is populated from the process environment by Load.
type Config struct {
	// Trace turns on execution tracing: each instruction is disassembled to
	// stderr as the VM steps over it. Tracing is a diagnostic observer and
	// its output format is not normative.
	Trace bool `env:"WISP_TRACE" envDefault:"false"`

	// MaxSteps bounds how many fetch-decode-dispatch cycles a single
	// Interpret call may run; the shell passes it to vm.SetMaxSteps, and the
	// VM aborts the run with a runtime error once it is exceeded (0 means
	// unbounded). This is purely a host-level guard against a REPL line or script
	// that loops forever, since the language this core compiles has no
	// control flow yet anyway but later growth of the grammar would change
	// that.
	MaxSteps int64 `env:"WISP_MAX_STEPS" envDefault:"10000000"`
}

// Load reads Config from the environment, applying the documented defaults
// for anything unset.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
