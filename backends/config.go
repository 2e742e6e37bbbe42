// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Config holds the parsed "<backend_configuration>" part of a backend configuration string.
type Config struct {
	// Version of the array framework, e.g. "1.11.0". Empty if not given.
	Version string

	// Device class, e.g. "cpu" or "gpu". Empty if not given.
	Device string

	// Options holds any other "key=value" pairs.
	Options map[string]string
}

// ParseConfig parses a backend configuration of comma-separated entries.
//
// Each entry is either "key=value", with the keys "version" and "device" having special meaning, or a bare value:
// bare values starting with a digit (or "v" followed by a digit) are taken as the version, other bare values as
// the device. Examples: "version=1.11.0,device=gpu", "2.4.2", "gpu,2.4.2".
func ParseConfig(backendConfig string) (Config, error) {
	config := Config{Options: make(map[string]string)}
	for _, entry := range strings.Split(backendConfig, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, hasValue := strings.Cut(entry, "=")
		if !hasValue {
			if looksLikeVersion(entry) {
				key, value = "version", entry
			} else {
				key, value = "device", entry
			}
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			return config, errors.Errorf("empty value for %q in backend configuration %q", key, backendConfig)
		}
		switch key {
		case "version":
			config.Version = strings.TrimPrefix(value, "v")
		case "device":
			config.Device = strings.ToLower(value)
		default:
			config.Options[key] = value
		}
	}
	return config, nil
}

func looksLikeVersion(value string) bool {
	value = strings.TrimPrefix(value, "v")
	return value != "" && unicode.IsDigit(rune(value[0]))
}
