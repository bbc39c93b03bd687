package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAddressesFromArgs(t *testing.T) {
	addrs, err := loadAddresses("", []string{
		"203.0.113.9:1080",
		" 203.0.113.9:1080 ", // duplicate after trimming
		"",
		"# a comment",
		"198.51.100.14:8080",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.9:1080", "198.51.100.14:8080"}, addrs)
}

func TestLoadAddressesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	require.NoError(t, os.WriteFile(path, []byte(`# fetched 2025-06-01
203.0.113.9:1080

198.51.100.14:8080
203.0.113.9:1080
`), 0o644))

	addrs, err := loadAddresses(path, []string{"192.0.2.1:3128", "203.0.113.9:1080"})
	require.NoError(t, err)

	// Arguments first, then the file, duplicates dropped.
	assert.Equal(t, []string{"192.0.2.1:3128", "203.0.113.9:1080", "198.51.100.14:8080"}, addrs)
}

func TestLoadAddressesMissingFile(t *testing.T) {
	_, err := loadAddresses(filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.Error(t, err)
}

func TestLoadAddressesNoInput(t *testing.T) {
	addrs, err := loadAddresses("", nil)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}
