package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseManifestDefaults(t *testing.T) {
	m, err := ParseManifest([]byte(`{"pages":[]}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.Theme != ThemeLight {
		t.Fatalf("theme = %q, want light", m.Theme)
	}
	if !strings.Contains(m.GlobalStylePrompt, "Minecraft") {
		t.Fatalf("global style not defaulted: %q", m.GlobalStylePrompt)
	}
}

func TestStylePromptThemes(t *testing.T) {
	m := &Manifest{GlobalStylePrompt: "Watercolor."}
	m.applyDefaults()
	if got := m.StylePrompt(); !strings.Contains(got, "Bright, warm, cheerful lighting") {
		t.Fatalf("light style = %q", got)
	}
	m.Theme = ThemeDark
	if got := m.StylePrompt(); !strings.Contains(got, "Dark, moody cinematic lighting") {
		t.Fatalf("dark style = %q", got)
	}
	if !strings.HasPrefix(m.StylePrompt(), "Watercolor.") {
		t.Fatal("custom global style lost")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown theme", `{"theme":"neon","pages":[]}`},
		{"character without path", `{"characters":{"hero":{"path":""}},"pages":[]}`},
		{"negative duration", `{"pages":[{"raw_description":"x","raw_narration_text":"y","duration_seconds":-1}]}`},
		{"malformed json", `{"pages":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.raw)); !errors.Is(err, ErrInvalidManifest) {
				t.Fatalf("err = %v, want ErrInvalidManifest", err)
			}
		})
	}
}

func TestUnknownReferencesAreNotErrors(t *testing.T) {
	raw := `{
		"pages":[{"raw_description":"x","raw_narration_text":"y",
			"location":"nowhere","include_characters":["ghost"]}]
	}`
	if _, err := ParseManifest([]byte(raw)); err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
}

func TestTitleText(t *testing.T) {
	title := &Title{TitleText: "  "}
	if got := title.Text(); got != "My Adventure" {
		t.Fatalf("default title = %q", got)
	}
	title.TitleText = "Boots Goes Home"
	if got := title.Text(); got != "Boots Goes Home" {
		t.Fatalf("title = %q", got)
	}
}

func TestIDsSorted(t *testing.T) {
	m := &Manifest{
		Characters: map[string]CharacterAsset{
			"zed":  {Path: "a.png"},
			"ana":  {Path: "b.png"},
			"mike": {Path: "c.png"},
		},
		Locations: map[string]LocationAsset{
			"woods": {},
			"beach": {},
		},
	}
	chars := m.CharacterIDs()
	if len(chars) != 3 || chars[0] != "ana" || chars[1] != "mike" || chars[2] != "zed" {
		t.Fatalf("character ids = %v", chars)
	}
	locs := m.LocationIDs()
	if len(locs) != 2 || locs[0] != "beach" || locs[1] != "woods" {
		t.Fatalf("location ids = %v", locs)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("boots"); got != "Boots" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := DisplayName("old_mill"); got != "Old Mill" {
		t.Fatalf("DisplayName = %q", got)
	}
}
