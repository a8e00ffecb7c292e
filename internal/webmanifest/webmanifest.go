// Package webmanifest loads and checks the web app manifest that makes a
// documentation site installable.
package webmanifest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// Icon is one entry of the manifest's icons list.
type Icon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes,omitempty"`
	Type    string `json:"type,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// Manifest holds the installable-app fields. Fields this type does not model
// are kept in Extra and written back unchanged.
type Manifest struct {
	Name            string `json:"name,omitempty"`
	ShortName       string `json:"short_name,omitempty"`
	Description     string `json:"description,omitempty"`
	StartURL        string `json:"start_url,omitempty"`
	Scope           string `json:"scope,omitempty"`
	Display         string `json:"display,omitempty"`
	Orientation     string `json:"orientation,omitempty"`
	Lang            string `json:"lang,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	ThemeColor      string `json:"theme_color,omitempty"`
	Icons           []Icon `json:"icons,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownFields = map[string]struct{}{
	"name": {}, "short_name": {}, "description": {}, "start_url": {}, "scope": {},
	"display": {}, "orientation": {}, "lang": {}, "background_color": {},
	"theme_color": {}, "icons": {},
}

var (
	sizesPattern = regexp.MustCompile(`^[0-9]+x[0-9]+$`)
	hexColor     = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// DisplayModes are the values accepted for display.
var DisplayModes = []string{"fullscreen", "standalone", "minimal-ui", "browser"}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.ManifestError(path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, derrors.ManifestError(path, err)
	}
	return m, nil
}

// Parse decodes a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

type plain Manifest

// UnmarshalJSON decodes the modelled fields and keeps the rest in Extra.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Manifest(p)
	for k, v := range raw {
		if _, ok := knownFields[k]; ok {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = v
	}
	return nil
}

// MarshalJSON writes modelled fields merged with Extra; modelled fields win.
func (m Manifest) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	merged := make(map[string]json.RawMessage, len(m.Extra)+len(knownFields))
	for k, v := range m.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Example returns a minimal manifest that passes Validate.
func Example(name string) Manifest {
	return Manifest{
		Name:            name,
		StartURL:        "/",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#ffffff",
		Icons: []Icon{
			{Src: "/icons/icon-192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "/icons/icon-512.png", Sizes: "512x512", Type: "image/png"},
		},
	}
}

// WithDefaults returns a copy with start_url, display and short_name filled
// when absent.
func (m Manifest) WithDefaults() Manifest {
	out := m
	out.Icons = append([]Icon(nil), m.Icons...)
	if out.StartURL == "" {
		out.StartURL = "/"
	}
	if out.Display == "" {
		out.Display = "standalone"
	}
	if out.ShortName == "" {
		out.ShortName = out.Name
	}
	return out
}

// Validate reports every missing or malformed installable-app field.
func (m *Manifest) Validate() error {
	var p derrors.Problems
	if strings.TrimSpace(m.Name) == "" {
		p.Addf("name is required")
	}
	if len(m.Icons) == 0 {
		p.Addf("at least one icon is required")
	}
	for i, icon := range m.Icons {
		if strings.TrimSpace(icon.Src) == "" {
			p.Addf("icons[%d].src is required", i)
		}
		if icon.Sizes == "" {
			p.Addf("icons[%d].sizes is required", i)
			continue
		}
		for _, s := range strings.Fields(icon.Sizes) {
			if s != "any" && !sizesPattern.MatchString(s) {
				p.Addf("icons[%d].sizes %q is not WxH", i, s)
			}
		}
	}
	if m.Display != "" && !contains(DisplayModes, m.Display) {
		p.Addf("display %q must be one of %s", m.Display, strings.Join(DisplayModes, ", "))
	}
	for _, c := range [][2]string{{"theme_color", m.ThemeColor}, {"background_color", m.BackgroundColor}} {
		if strings.HasPrefix(c[1], "#") && !hexColor.MatchString(c[1]) {
			p.Addf("%s %q is not a hex color", c[0], c[1])
		}
	}
	return p.Err(derrors.CategoryManifest, "web manifest invalid")
}

// ExtraKeys lists the preserved unmodelled field names in sorted order.
func (m *Manifest) ExtraKeys() []string {
	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for log output.
func (m *Manifest) String() string {
	return fmt.Sprintf("%s (%d icons)", m.Name, len(m.Icons))
}
