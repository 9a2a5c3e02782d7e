// Copyright 2017 The go-ethereum Authors
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
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "zero min age", mutate: func(c *Config) { c.MinAge = 0 }, wantErr: errMinAgeTooLow},
		{name: "max min age", mutate: func(c *Config) { c.MinAge = MaximumAge }},
		{name: "min age overflow", mutate: func(c *Config) { c.MinAge = 274 }, wantErr: errMinAgeTooHigh},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: errUnknownLogLevel},
		{name: "upper level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{name: "negative cache", mutate: func(c *Config) { c.StateCacheMB = -1 }},
	}
	for _, tc := range tests {
		cfg := DefaultConfig
		tc.mutate(&cfg)
		err := cfg.Validate()
		switch {
		case tc.name == "negative cache":
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
		case tc.wantErr == nil && err != nil:
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		case tc.wantErr != nil && !errors.Is(err, tc.wantErr):
			t.Fatalf("%s: have %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestProtocolConstants(t *testing.T) {
	if MaxCompatibilityScore != 99 {
		t.Fatalf("unexpected max score %d", MaxCompatibilityScore)
	}
	if NoMatchIndex >= FirstSlot {
		t.Fatalf("sentinel index %d must precede first slot %d", NoMatchIndex, FirstSlot)
	}
	seen := map[string]bool{}
	for _, a := range []string{EngineAddress.Hex(), RegistryAddress.Hex(), ProfileAddress.Hex(), MatchAddress.Hex(), ConsentAddress.Hex(), ACLAddress.Hex(), NonceAddress.Hex()} {
		if seen[a] {
			t.Fatalf("duplicate system address %s", a)
		}
		seen[a] = true
	}
}
