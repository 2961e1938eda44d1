package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"firms", "geocode", "cache", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "ipo-sim", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestGeocodeCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range geocodeCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["batch"])
	assert.True(t, names["resolve"])
}

func TestCacheCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["clear"])
	assert.True(t, names["stats"])
}

func TestGeocodeBatchCommand_Flags(t *testing.T) {
	flag := geocodeBatchCmd.Flags().Lookup("force")
	require.NotNil(t, flag, "geocode batch should have --force flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestGeocodeResolveCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "refresh"} {
		assert.NotNil(t, geocodeResolveCmd.Flags().Lookup(name), "geocode resolve should have --%s flag", name)
	}
}

func TestFirmsCommand_Flags(t *testing.T) {
	flag := firmsCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
	assert.NotNil(t, firmsCmd.Flags().Lookup("source"))
	assert.NotNil(t, firmsCmd.Flags().Lookup("category"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
