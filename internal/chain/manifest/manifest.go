// Package manifest backs the registry's chain-facing ports with a YAML
// deployment manifest, a snapshot of the protocol's release state
// maintained by the deployment tooling. It provides a ReleaseSource over
// the manifest's release list, a CodeReader over its bytecode section,
// and a deterministic local factory for dry-run vault deployments.
package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoReleases is returned when the manifest declares no releases.
	ErrNoReleases = errors.New("manifest declares no releases")

	// ErrUnknownFactory is returned when dialing a factory address the
	// manifest does not list.
	ErrUnknownFactory = errors.New("unknown factory address")

	// ErrUnknownStrategy is returned when a strategy address has no
	// manifest entry to report an API version from.
	ErrUnknownStrategy = errors.New("unknown strategy address")

	// ErrNoBlueprintCode is returned when a release's blueprint address
	// has no bytecode in the manifest.
	ErrNoBlueprintCode = errors.New("no bytecode at blueprint address")
)

// Document is the raw YAML form of a deployment manifest.
type Document struct {
	// Releases is the ordered factory generation list. Index 0 is the
	// oldest release, the last entry the latest.
	Releases []ReleaseEntry `yaml:"releases"`

	// Code maps deployed addresses to their bytecode, either inline hex
	// or a file reference relative to the manifest.
	Code map[string]CodeEntry `yaml:"code"`

	// Strategies maps strategy addresses to their self-reported API
	// version strings.
	Strategies map[string]string `yaml:"strategies"`
}

// ReleaseEntry describes one factory generation.
type ReleaseEntry struct {
	Factory    string `yaml:"factory"`
	APIVersion string `yaml:"api_version"`
	Blueprint  string `yaml:"blueprint"`
}

// CodeEntry is either an inline hex string or a file reference:
//
//	code:
//	  "0xabc…": "60806040…"
//	  "0xdef…": { file: vault_302.hex }
type CodeEntry struct {
	Hex  string
	File string
}

// UnmarshalYAML accepts a scalar hex string or a mapping with a file key.
func (e *CodeEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Hex = raw
		return nil
	case yaml.MappingNode:
		var ref struct {
			File string `yaml:"file"`
		}
		if err := node.Decode(&ref); err != nil {
			return err
		}
		if ref.File == "" {
			return fmt.Errorf("code entry mapping needs a file key (line %d)", node.Line)
		}
		e.File = ref.File
		return nil
	default:
		return fmt.Errorf("code entry must be a hex string or a file mapping (line %d)", node.Line)
	}
}

// bytecode resolves the entry to raw bytes, reading file references
// relative to baseDir.
func (e CodeEntry) bytecode(baseDir string) ([]byte, error) {
	raw := e.Hex
	if e.File != "" {
		data, err := os.ReadFile(filepath.Join(baseDir, e.File)) //nolint:gosec // G304: path comes from the operator's manifest
		if err != nil {
			return nil, fmt.Errorf("read code file: %w", err)
		}
		raw = strings.TrimSpace(string(data))
	}
	return decodeHex(raw)
}

func decodeHex(raw string) ([]byte, error) {
	raw = strings.TrimPrefix(raw, "0x")
	code, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed bytecode hex: %w", err)
	}
	return code, nil
}

// Load reads and parses a manifest document from path. File references
// in the code section stay unresolved until NewStore.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the configured manifest path
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest document from YAML.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &doc, nil
}
