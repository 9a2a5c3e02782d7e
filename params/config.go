// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"errors"
	"fmt"
	"strings"
)

// Config contains the engine and local ledger settings.
type Config struct {
	// DataDir holds the ledger state database, the coprocessor ciphertext
	// store and the keystore. An empty DataDir keeps everything in memory.
	DataDir string `toml:",omitempty"`

	// SearchBatchSize caps the number of candidate slots scanned by a single
	// search operation. Zero scans every slot in one call.
	SearchBatchSize uint64

	// MinAge is the minimum age both sides of a pair must satisfy.
	MinAge uint64

	// StateCacheMB sizes the clean slot cache of the state database.
	StateCacheMB int

	// LogLevel is one of trace, debug, info, warn, error, crit.
	LogLevel string

	Coprocessor CoprocessorConfig
}

// CoprocessorConfig configures the local encrypted value collaborator.
type CoprocessorConfig struct {
	KeyFile        string `toml:",omitempty"` // Hex encoded signing key; generated in DataDir if empty
	PlaintextCache int    // Entries kept in the opened-ciphertext cache
}

// DefaultConfig contains the default settings.
var DefaultConfig = Config{
	SearchBatchSize: DefaultSearchBatchSize,
	MinAge:          MinimumAge,
	StateCacheMB:    DefaultStateCacheMB,
	LogLevel:        "info",
	Coprocessor: CoprocessorConfig{
		PlaintextCache: 4096,
	},
}

var (
	errMinAgeTooLow    = errors.New("params: MinAge must be positive")
	errMinAgeTooHigh   = errors.New("params: MinAge exceeds MaximumAge")
	errUnknownLogLevel = errors.New("params: unknown LogLevel")
)

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.MinAge == 0 {
		return errMinAgeTooLow
	}
	if c.MinAge > MaximumAge {
		return fmt.Errorf("%w: %d > %d", errMinAgeTooHigh, c.MinAge, MaximumAge)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "trace", "debug", "info", "warn", "error", "crit":
	default:
		return fmt.Errorf("%w: %q", errUnknownLogLevel, c.LogLevel)
	}
	if c.StateCacheMB < 0 {
		return fmt.Errorf("params: negative StateCacheMB %d", c.StateCacheMB)
	}
	if c.Coprocessor.PlaintextCache < 0 {
		return fmt.Errorf("params: negative Coprocessor.PlaintextCache %d", c.Coprocessor.PlaintextCache)
	}
	return nil
}

// String implements fmt.Stringer.
func (c *Config) String() string {
	return fmt.Sprintf("{DataDir: %q SearchBatchSize: %d MinAge: %d StateCacheMB: %d LogLevel: %s}",
		c.DataDir, c.SearchBatchSize, c.MinAge, c.StateCacheMB, c.LogLevel)
}
