// SPDX-License-Identifier: AGPL-3.0-or-later

/*

bqport - bqport deploys a tree of local SQL source files to a cloud data
warehouse as persistent remote resources, and reconciles remote state
with local state by removing orphaned remote resources.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCommand_HasExpectedBasics(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "bqport" {
		t.Fatalf("expected Use to be 'bqport', got %q", cmd.Use)
	}

	if cmd.Short == "" {
		t.Fatalf("expected Short description to be non-empty")
	}

	versionCmd, _, err := cmd.Find([]string{"version"})
	if err != nil {
		t.Fatalf("expected to find 'version' subcommand, got error: %v", err)
	}
	if versionCmd.Use != "version" {
		t.Fatalf("expected 'version' command Use to be 'version', got %q", versionCmd.Use)
	}

	pushCmd, _, err := cmd.Find([]string{"push"})
	if err != nil {
		t.Fatalf("expected to find 'push' subcommand, got error: %v", err)
	}
	if pushCmd.Use != "push [projects...]" {
		t.Fatalf("expected 'push' command Use to be 'push [projects...]', got %q", pushCmd.Use)
	}

	bundleCmd, _, err := cmd.Find([]string{"bundle"})
	if err != nil {
		t.Fatalf("expected to find 'bundle' subcommand, got error: %v", err)
	}
	if bundleCmd.Use != "bundle [projects...]" {
		t.Fatalf("expected 'bundle' command Use, got %q", bundleCmd.Use)
	}
}

func TestVersionCommand_PrintsVersion(t *testing.T) {
	cmd := NewRootCommand()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error executing 'version' command, got: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "bqport version") {
		t.Fatalf("expected output to contain 'bqport version', got: %q", out)
	}
}
