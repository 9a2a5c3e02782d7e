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

package utils

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/params"
)

func newTestContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range append(GlobalFlags, PasswordFileFlag) {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply %v: %v", f.Names(), err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cli.NewContext(nil, set, nil)
}

func TestSetConfig(t *testing.T) {
	ctx := newTestContext(t, "--datadir", "/tmp/fh", "--search.batch", "8", "--verbosity", "debug", "--cache", "16")
	cfg := params.DefaultConfig
	SetConfig(ctx, &cfg)

	want := params.DefaultConfig
	want.DataDir = "/tmp/fh"
	want.SearchBatchSize = 8
	want.LogLevel = "debug"
	want.StateCacheMB = 16
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("config mismatch:\nhave %v\nwant %v", cfg.String(), want.String())
	}
}

func TestSetConfigKeepsFileValues(t *testing.T) {
	ctx := newTestContext(t)
	cfg := params.DefaultConfig
	cfg.DataDir = "/from/file"
	cfg.MinAge = 21
	SetConfig(ctx, &cfg)
	if cfg.DataDir != "/from/file" || cfg.MinAge != 21 {
		t.Fatalf("flags overrode file settings: %v", cfg.String())
	}
}

func TestMakePasswordList(t *testing.T) {
	file := filepath.Join(t.TempDir(), "passwords")
	if err := os.WriteFile(file, []byte("one\r\ntwo\n"), 0600); err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, "--password", file)
	if got := MakePasswordList(ctx); !reflect.DeepEqual(got, []string{"one", "two", ""}) {
		t.Fatalf("unexpected passwords %q", got)
	}
	if got := MakePasswordList(newTestContext(t)); got != nil {
		t.Fatalf("expected no passwords, got %q", got)
	}
}

func TestParseUint(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"12", 12, true},
		{" 0x1f ", 31, true},
		{"-1", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseUint(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseUint(%q) = %d, %v", tt.in, got, err)
		}
	}
}
