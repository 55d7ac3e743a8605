// Package config implements the generator's options: the requested
// table-construction mode, the shift/reduce conflict fallback policy, and a
// strict-handler-purity toggle, loadable from a TOML file and overridable by
// command-line flags.
//
// Flags are registered on a caller-supplied *pflag.FlagSet, and that
// FlagSet's Changed tells "explicitly set" from "defaulted"; TOML config is
// loaded via github.com/BurntSushi/toml.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/havtorn/sturgeon/lr"
	"github.com/spf13/pflag"
)

// Mode names which table-construction algorithm to request, with "auto"
// meaning "try SLR, then LALR(1), then canonical LR(1)".
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeSLR   Mode = "slr"
	ModeLALR1 Mode = "lalr1"
	ModeCLR1  Mode = "lr1"
)

// ShiftReducePolicy names the fallback applied to a shift/reduce conflict
// that operator precedence leaves unresolved: shift, reduce, or error
// (the default).
type ShiftReducePolicy string

const (
	PolicyError  ShiftReducePolicy = "error"
	PolicyShift  ShiftReducePolicy = "shift"
	PolicyReduce ShiftReducePolicy = "reduce"
)

// GeneratorOptions is the full set of knobs a generator run takes, loadable
// from a TOML file (`[generator]` table) and then overridden by any flags
// the caller explicitly passed.
type GeneratorOptions struct {
	Mode              Mode              `toml:"mode"`
	ShiftReduce       ShiftReducePolicy `toml:"shift_reduce"`
	StrictHandlerPure bool              `toml:"strict_handler_purity"`
}

// Default returns the documented defaults: auto mode, error on unresolved
// conflicts, purity checking off.
func Default() GeneratorOptions {
	return GeneratorOptions{Mode: ModeAuto, ShiftReduce: PolicyError}
}

// LRPolicy translates the TOML-facing policy name into the lr package's
// enum, defaulting to lr.PolicyError for any unrecognized or empty value.
func (o GeneratorOptions) LRPolicy() lr.ShiftReducePolicy {
	switch o.ShiftReduce {
	case PolicyShift:
		return lr.PolicyShift
	case PolicyReduce:
		return lr.PolicyReduce
	default:
		return lr.PolicyError
	}
}

// Validate rejects an options value with an unrecognized Mode or
// ShiftReduce, so a bad TOML file or flag value fails fast rather than
// silently falling back to a default the caller didn't ask for.
func (o GeneratorOptions) Validate() error {
	switch o.Mode {
	case ModeAuto, ModeSLR, ModeLALR1, ModeCLR1:
	default:
		return fmt.Errorf("config: unrecognized mode %q", o.Mode)
	}
	switch o.ShiftReduce {
	case "", PolicyError, PolicyShift, PolicyReduce:
	default:
		return fmt.Errorf("config: unrecognized shift_reduce policy %q", o.ShiftReduce)
	}
	return nil
}

// Load reads a TOML config file at path into opts rooted at Default(). A
// missing file is not an error: the defaults (or whatever flags later
// override) stand on their own.
func Load(path string) (GeneratorOptions, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var file struct {
		Generator GeneratorOptions `toml:"generator"`
	}
	file.Generator = opts
	if err := toml.Unmarshal(data, &file); err != nil {
		return opts, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return file.Generator, nil
}

// Flags is the set of pflag-bound override flags for GeneratorOptions,
// registered on a caller-supplied FlagSet rather than through cobra/viper's
// struct-tag binding.
type Flags struct {
	mode        *string
	shiftReduce *string
	strictPure  *bool
}

// BindFlags registers the override flags on fs, to be read back with Apply
// once fs.Parse has run.
func BindFlags(fs *pflag.FlagSet) *Flags {
	return &Flags{
		mode:        fs.String("mode", "", "table construction mode: auto, slr, lalr1, or lr1"),
		shiftReduce: fs.String("shift-reduce", "", "shift/reduce conflict fallback: error, shift, or reduce"),
		strictPure:  fs.Bool("strict-handler-purity", false, "reject handlers that are not provably pure"),
	}
}

// Apply overrides base with every flag the caller explicitly passed
// (pflag's Changed, not merely "non-zero-valued"), so an unset flag never
// clobbers a value Load already established from the TOML file.
func (f *Flags) Apply(fs *pflag.FlagSet, base GeneratorOptions) GeneratorOptions {
	if fs.Changed("mode") {
		base.Mode = Mode(*f.mode)
	}
	if fs.Changed("shift-reduce") {
		base.ShiftReduce = ShiftReducePolicy(*f.shiftReduce)
	}
	if fs.Changed("strict-handler-purity") {
		base.StrictHandlerPure = *f.strictPure
	}
	return base
}
