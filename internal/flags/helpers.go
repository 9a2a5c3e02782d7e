package flags

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/params"
)

// NewApp creates an app with sane defaults.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	app.Copyright = "Copyright 2024-2026 The FHEarts Authors"
	return app
}

// Merge merges the given flag slices.
func Merge(groups ...[]cli.Flag) []cli.Flag {
	var ret []cli.Flag
	for _, group := range groups {
		ret = append(ret, group...)
	}
	return ret
}

// HomeDir returns the user's home directory, or "" if it cannot be found.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return ""
}

// DefaultDataDir is the default data directory to use for the ledger, the
// coprocessor store and the keystore.
func DefaultDataDir() string {
	if home := HomeDir(); home != "" {
		return filepath.Join(home, ".fhearts")
	}
	return ""
}
