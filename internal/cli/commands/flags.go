// SPDX-License-Identifier: AGPL-3.0-or-later

/*
bqport - bqport deploys a tree of local SQL source files to a cloud data
warehouse as persistent remote resources, and reconciles remote state
with local state by removing orphaned remote resources.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bqport/pkg/config"
	"bqport/pkg/warehouse"
)

// ResolvedFlags contains the resolved values for push's global options.
type ResolvedFlags struct {
	RootPath           string
	Threads            int
	Format             string
	Force              bool
	DryRun             bool
	Verbose            bool
	Labels             map[string]string
	Parameters         []warehouse.QueryParameter
	MaximumBytesBilled int64
}

// ResolveFlags resolves global flags with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Config file defaults
// 4. Built-in defaults (lowest priority)
func ResolveFlags(cmd *cobra.Command, cfg *config.Config) (*ResolvedFlags, error) {
	flags := &ResolvedFlags{}

	rootFlag, _ := cmd.Flags().GetString("root-path")
	rootEnv := os.Getenv("BQPORT_ROOT_PATH")
	rootDefault := "."
	if cfg != nil && cfg.RootPath != "" {
		rootDefault = cfg.RootPath
	}
	flags.RootPath = resolveString(rootFlag, rootEnv, rootDefault)

	threadsFlag, _ := cmd.Flags().GetInt("threads")
	threadsEnv := parseIntEnv(os.Getenv("BQPORT_THREADS"))
	threadsDefault := config.DefaultConcurrency
	if cfg != nil && cfg.Concurrency > 0 {
		threadsDefault = cfg.Concurrency
	}
	flags.Threads = resolveInt(threadsFlag, threadsEnv, threadsDefault)

	formatFlag, _ := cmd.Flags().GetString("format")
	formatEnv := os.Getenv("BQPORT_FORMAT")
	flags.Format = resolveString(formatFlag, formatEnv, "console")
	if flags.Format != "console" && flags.Format != "json" {
		return nil, fmt.Errorf("invalid --format %q: must be \"console\" or \"json\"", flags.Format)
	}

	forceFlag, _ := cmd.Flags().GetBool("force")
	forceEnv := parseBoolEnv(os.Getenv("BQPORT_FORCE"))
	flags.Force = resolveBool(forceFlag, forceEnv, false)

	dryRunFlag, _ := cmd.Flags().GetBool("dry-run")
	dryRunEnv := parseBoolEnv(os.Getenv("BQPORT_DRY_RUN"))
	flags.DryRun = resolveBool(dryRunFlag, dryRunEnv, false)

	verboseFlag, _ := cmd.Flags().GetBool("verbose")
	verboseEnv := parseBoolEnv(os.Getenv("BQPORT_VERBOSE"))
	flags.Verbose = resolveBool(verboseFlag, verboseEnv, false)

	labelPairs, _ := cmd.Flags().GetStringArray("label")
	labels, err := parseLabels(labelPairs)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		for k, v := range cfg.Labels {
			if _, overridden := labels[k]; !overridden {
				labels[k] = v
			}
		}
	}
	flags.Labels = labels

	paramSpecs, _ := cmd.Flags().GetStringArray("parameter")
	params, err := parseParameters(paramSpecs)
	if err != nil {
		return nil, err
	}
	flags.Parameters = params

	bytesFlag, _ := cmd.Flags().GetInt64("maximum_bytes_billed")
	var bytesDefault int64
	if cfg != nil {
		bytesDefault = cfg.MaximumBytesBilled
	}
	flags.MaximumBytesBilled = resolveInt64(bytesFlag, bytesDefault)

	return flags, nil
}

// resolveString resolves a string value with precedence: flag > env > default.
func resolveString(flag, env, defaultValue string) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	return defaultValue
}

// resolveBool resolves a boolean value with precedence: flag > env > default.
func resolveBool(flag, env, defaultValue bool) bool {
	if flag {
		return true
	}
	if env {
		return true
	}
	return defaultValue
}

// resolveInt resolves an integer with precedence: flag > env > default.
// A zero flag value falls through, since Cobra reports an unset int
// flag as its zero value.
func resolveInt(flag, env, defaultValue int) int {
	if flag > 0 {
		return flag
	}
	if env > 0 {
		return env
	}
	return defaultValue
}

func resolveInt64(flag, defaultValue int64) int64 {
	if flag > 0 {
		return flag
	}
	return defaultValue
}

// parseBoolEnv parses a boolean from an environment variable.
// Returns false if the env var is not set or cannot be parsed.
func parseBoolEnv(value string) bool {
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}

func parseIntEnv(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}

// parseLabels parses repeatable --label key:value flags.
func parseLabels(pairs []string) (map[string]string, error) {
	labels := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --label %q: expected key:value", pair)
		}
		labels[key] = value
	}
	return labels, nil
}

// parseParameters parses repeatable --parameter name:type:value flags.
// An empty name means positional; type "integer" parses value as an
// integer, otherwise it stays a string; the literal value "NULL" maps
// to a nil value.
func parseParameters(specs []string) ([]warehouse.QueryParameter, error) {
	params := make([]warehouse.QueryParameter, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --parameter %q: expected name:type:value", spec)
		}
		name, typ, raw := parts[0], parts[1], parts[2]

		var value interface{}
		switch {
		case raw == "NULL":
			value = nil
		case strings.EqualFold(typ, "integer"):
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --parameter %q: %w", spec, err)
			}
			value = parsed
		default:
			value = raw
		}

		params = append(params, warehouse.QueryParameter{Name: name, Type: typ, Value: value})
	}
	return params, nil
}
