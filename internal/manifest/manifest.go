// Package manifest describes the build report written next to the artifacts.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// BuildManifest represents a complete record of a build's inputs, plan, and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Plan      Plan      `json:"plan"`
	Counts    Counts    `json:"counts"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	Descriptor     string `json:"descriptor"`
	DescriptorHash string `json:"descriptor_hash"`
	ContentDir     string `json:"content_dir"`
	WebManifest    string `json:"web_manifest"`
	BuildDir       string `json:"build_dir"`
}

// Plan captures the caching plan the build applied.
type Plan struct {
	Mode         string   `json:"mode"`
	RegisterType string   `json:"register_type"`
	GlobPatterns []string `json:"glob_patterns"`
	Groups       []string `json:"groups"`
	Components   []string `json:"components,omitempty"`
}

// Counts summarizes what the build saw.
type Counts struct {
	Documents       int   `json:"documents"`
	SidebarLinks    int   `json:"sidebar_links"`
	Unresolved      int   `json:"unresolved"`
	PrecacheEntries int   `json:"precache_entries"`
	PrecacheBytes   int64 `json:"precache_bytes"`
	PrecacheSkipped int   `json:"precache_skipped"`
}

// Outputs captures all outputs from the build.
type Outputs struct {
	Directory      string            `json:"directory"`
	Files          []string          `json:"files"`
	ArtifactHashes map[string]string `json:"artifact_hashes,omitempty"`
}

// New starts a manifest with a fresh build id.
func New(now time.Time) *BuildManifest {
	return &BuildManifest{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Outputs:   Outputs{ArtifactHashes: map[string]string{}},
	}
}

// AddOutput records an artifact and its content hash.
func (o *Outputs) AddOutput(name string, data []byte) {
	if o.ArtifactHashes == nil {
		o.ArtifactHashes = map[string]string{}
	}
	if _, seen := o.ArtifactHashes[name]; !seen {
		o.Files = append(o.Files, name)
		sort.Strings(o.Files)
	}
	o.ArtifactHashes[name] = HashBytes(data)
}

// HashBytes returns the hex sha256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs and plan.
// Two builds with the same hash consumed identical descriptors and caching plans.
func (m *BuildManifest) Hash() (string, error) {
	hashInput := struct {
		DescriptorHash string `json:"descriptor_hash"`
		WebManifest    string `json:"web_manifest"`
		Plan           Plan   `json:"plan"`
	}{
		DescriptorHash: m.Inputs.DescriptorHash,
		WebManifest:    m.Inputs.WebManifest,
		Plan:           m.Plan,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return HashBytes(data), nil
}
