// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config decodes the HCL configuration grammar described in
// spec.md §6.1: a top-level queue number and default expiry, plus
// repeated trigger blocks. Keyword matching (protocol names, direction
// values) is case-insensitive throughout.
package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/ddosentinel/internal/errors"
)

// Config is the decoded top-level configuration tree.
type Config struct {
	// Queue is the kernel NFQUEUE identifier the source module binds.
	Queue uint16 `hcl:"queue"`
	// Expiry is the default ban duration in seconds, used by any trigger
	// that does not set its own.
	Expiry uint64 `hcl:"expiry"`

	Triggers []TriggerConfig `hcl:"trigger,block"`
}

// TriggerConfig is one `trigger { ... }` block.
type TriggerConfig struct {
	// Protocol is one of tcp, tcp-syn, udp, icmp (case-insensitive).
	Protocol string `hcl:"protocol"`

	TargetPPS       *uint64 `hcl:"target_pps,optional"`
	TargetMbps      *uint64 `hcl:"target_mbps,optional"`
	FlowCount       *uint32 `hcl:"flowcount,optional"`
	BelowMbps       *uint64 `hcl:"below_mbps,optional"`
	Expiry          *uint64 `hcl:"expiry,optional"`
	ActionDirection *string `hcl:"action_direction,optional"`

	Actions []string `hcl:"actions,optional"`
}

// LoadFile decodes path as an HCL configuration file matching Config's
// grammar.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "config: decode %s", path)
	}
	return &cfg, nil
}

// LoadBytes decodes data as an HCL configuration file, using filename
// only for diagnostic messages.
func LoadBytes(filename string, data []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, data, nil, &cfg); err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "config: decode %s", filename)
	}
	return &cfg, nil
}
