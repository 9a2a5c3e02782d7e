// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for fhearts commands.
package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	gopsutil "github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/internal/flags"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/params"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &cli.PathFlag{
		Name:     "datadir",
		Usage:    "Data directory for the ledger, the coprocessor store and the keystore",
		Value:    flags.DefaultDataDir(),
		Category: flags.FHEartsCategory,
	}
	ConfigFileFlag = &cli.PathFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.FHEartsCategory,
	}

	// Account settings
	KeyFileFlag = &cli.PathFlag{
		Name:     "keyfile",
		Usage:    "Participant key file",
		Value:    "keyfile.json",
		Category: flags.AccountCategory,
	}
	PasswordFileFlag = &cli.PathFlag{
		Name:     "password",
		Usage:    "Password file to use for non-interactive password input",
		Category: flags.AccountCategory,
	}
	LightKDFFlag = &cli.BoolFlag{
		Name:     "lightkdf",
		Usage:    "Reduce key-derivation RAM & CPU usage at some expense of KDF strength",
		Category: flags.AccountCategory,
	}

	// Engine settings
	SearchBatchSizeFlag = &cli.Uint64Flag{
		Name:     "search.batch",
		Usage:    "Candidate slots scanned per search operation (0 = all)",
		Value:    params.DefaultSearchBatchSize,
		Category: flags.EngineCategory,
	}
	MinAgeFlag = &cli.Uint64Flag{
		Name:     "engine.minage",
		Usage:    "Minimum age both sides of a match must satisfy",
		Value:    params.MinimumAge,
		Category: flags.EngineCategory,
	}
	CoprocessorKeyFlag = &cli.PathFlag{
		Name:     "coprocessor.key",
		Usage:    "Hex encoded signing key of the local coprocessor (default = inside the datadir)",
		Category: flags.EngineCategory,
	}

	// Performance tuning settings
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to the state cache",
		Value:    params.DefaultStateCacheMB,
		Category: flags.PerfCategory,
	}

	// Logging and debug settings
	VerbosityFlag = &cli.StringFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: trace, debug, info, warn, error, crit",
		Value:    "info",
		Category: flags.LoggingCategory,
	}
	JSONFlag = &cli.BoolFlag{
		Name:     "json",
		Usage:    "Output JSON instead of human-readable format",
		Category: flags.MiscCategory,
	}
)

// GlobalFlags are accepted by every command.
var GlobalFlags = []cli.Flag{
	DataDirFlag,
	ConfigFileFlag,
	SearchBatchSizeFlag,
	MinAgeFlag,
	CoprocessorKeyFlag,
	CacheFlag,
	VerbosityFlag,
}

// MakeDataDir retrieves the currently requested data directory.
func MakeDataDir(ctx *cli.Context) string {
	if path := ctx.Path(DataDirFlag.Name); path != "" {
		return path
	}
	Fatalf("Cannot determine default data directory, please set manually (--datadir)")
	return ""
}

// SetConfig applies command line flags onto cfg.
func SetConfig(ctx *cli.Context, cfg *params.Config) {
	if ctx.IsSet(DataDirFlag.Name) || cfg.DataDir == "" {
		cfg.DataDir = MakeDataDir(ctx)
	}
	if ctx.IsSet(SearchBatchSizeFlag.Name) {
		cfg.SearchBatchSize = ctx.Uint64(SearchBatchSizeFlag.Name)
	}
	if ctx.IsSet(MinAgeFlag.Name) {
		cfg.MinAge = ctx.Uint64(MinAgeFlag.Name)
	}
	if ctx.IsSet(CoprocessorKeyFlag.Name) {
		cfg.Coprocessor.KeyFile = ctx.Path(CoprocessorKeyFlag.Name)
	}
	if ctx.IsSet(VerbosityFlag.Name) {
		cfg.LogLevel = ctx.String(VerbosityFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.StateCacheMB = ctx.Int(CacheFlag.Name)
	}
	cfg.StateCacheMB = SanitizeCache(cfg.StateCacheMB)
}

// SanitizeCache caps a cache allowance to a third of the system memory.
func SanitizeCache(cache int) int {
	mem, err := gopsutil.VirtualMemory()
	if err != nil {
		return cache
	}
	if 32<<(^uintptr(0)>>63) == 32 && mem.Total > 2*1024*1024*1024 {
		log.Warn("Lowering memory allowance on 32bit arch", "available", mem.Total/1024/1024, "addressable", 2*1024)
		mem.Total = 2 * 1024 * 1024 * 1024
	}
	allowance := int(mem.Total / 1024 / 1024 / 3)
	if cache > allowance {
		log.Warn("Sanitizing cache to Go's GC limits", "provided", cache, "updated", allowance)
		return allowance
	}
	return cache
}

// SetupLogging routes the root logger to stderr at the given level, in
// colored terminal format when stderr is a terminal and logfmt otherwise.
func SetupLogging(level string) error {
	lvl, err := log.LvlFromString(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return err
	}
	var handler log.Handler
	if log.IsTerminal(os.Stderr) {
		handler = log.StreamHandler(colorable.NewColorableStderr(), log.TerminalFormat(true))
	} else {
		handler = log.StreamHandler(os.Stderr, log.LogfmtFormat())
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, handler))
	return nil
}

// MakePasswordList reads password lines from the file specified by the global --password flag.
func MakePasswordList(ctx *cli.Context) []string {
	path := ctx.Path(PasswordFileFlag.Name)
	if path == "" {
		return nil
	}
	text, err := os.ReadFile(path)
	if err != nil {
		Fatalf("Failed to read password file: %v", err)
	}
	lines := strings.Split(string(text), "\n")
	// Sanitise DOS line endings.
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

// ParseUint parses a decimal or 0x-prefixed hex unsigned integer argument.
func ParseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
