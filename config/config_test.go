package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/havtorn/sturgeon/lr"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default_IsAutoAndErrorPolicy(t *testing.T) {
	opts := Default()
	assert.Equal(t, ModeAuto, opts.Mode)
	assert.Equal(t, PolicyError, opts.ShiftReduce)
	assert.Equal(t, lr.PolicyError, opts.LRPolicy())
}

func Test_Load_MissingFileReturnsDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

func Test_Load_ReadsGeneratorTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sturgeon.toml")
	content := "[generator]\nmode = \"lalr1\"\nshift_reduce = \"shift\"\nstrict_handler_purity = true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeLALR1, opts.Mode)
	assert.Equal(t, PolicyShift, opts.ShiftReduce)
	assert.True(t, opts.StrictHandlerPure)
	assert.Equal(t, lr.PolicyShift, opts.LRPolicy())
}

func Test_Validate_RejectsUnknownMode(t *testing.T) {
	opts := GeneratorOptions{Mode: "bogus"}
	assert.Error(t, opts.Validate())
}

func Test_Validate_RejectsUnknownPolicy(t *testing.T) {
	opts := GeneratorOptions{Mode: ModeAuto, ShiftReduce: "bogus"}
	assert.Error(t, opts.Validate())
}

func Test_Flags_OnlyOverrideWhatWasChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--mode=lr1"}))

	base := GeneratorOptions{Mode: ModeAuto, ShiftReduce: PolicyReduce}
	got := f.Apply(fs, base)

	assert.Equal(t, ModeCLR1, got.Mode)
	assert.Equal(t, PolicyReduce, got.ShiftReduce, "unchanged flag must not clobber the base value")
}
