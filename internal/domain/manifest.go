package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Theme biases the lighting and mood language appended to the global style.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	defaultGlobalStyle = "Warm, nostalgic Minecraft pixelated blocky style."
	defaultTitleText   = "my adventure"

	lightStyleSuffix = " Bright, warm, cheerful lighting. Soft golden sunlight, vivid warm colors," +
		" inviting daytime atmosphere. Friendly and uplifting mood."
	darkStyleSuffix = " Dark, moody cinematic lighting. Deep shadows, cool blue and purple tones," +
		" moonlit atmosphere, dramatic contrast. Night or twilight setting."
)

var titleCaser = cases.Title(language.English)

// CharacterAsset pairs a curated reference image with the textual consistency
// description injected into every prompt that includes the character.
type CharacterAsset struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// LocationAsset describes a known scene: tags drive implicit resolution from
// free text, the plate is a fixed background composition, and refs are loose
// reference shots used when no plate exists.
type LocationAsset struct {
	Tags  []string `json:"tags,omitempty"`
	Plate string   `json:"plate,omitempty"`
	Refs  []string `json:"refs,omitempty"`
}

// Page is one illustrated spread of the book. IncludeCharacters nil means
// "all known characters"; an explicit empty list means none.
type Page struct {
	RawDescription    string   `json:"raw_description"`
	RawNarrationText  string   `json:"raw_narration_text"`
	Location          string   `json:"location,omitempty"`
	BaseImage         string   `json:"base_image,omitempty"`
	IncludeCharacters []string `json:"include_characters,omitempty"`
	MotionPrompt      string   `json:"motion_prompt,omitempty"`
	ScaleHint         string   `json:"scale_hint,omitempty"`
	DurationSeconds   int      `json:"duration_seconds,omitempty"`
}

// Title is the cover page, treated as page index 0 throughout.
type Title struct {
	RawDescription string `json:"raw_description"`
	TitleText      string `json:"title_text"`
	BaseImage      string `json:"base_image,omitempty"`
}

// Text returns the literal cover text, defaulting when the author left it blank.
func (t *Title) Text() string {
	if text := strings.TrimSpace(t.TitleText); text != "" {
		return text
	}
	return titleCaser.String(defaultTitleText)
}

// Manifest is the complete declarative input for one storybook run. It is
// immutable once loaded and persisted as the single source of truth per
// project.
type Manifest struct {
	GlobalStylePrompt  string                    `json:"global_style_prompt,omitempty"`
	Theme              Theme                     `json:"theme,omitempty"`
	APIKey             string                    `json:"api_key,omitempty"`
	SignatureCharacter string                    `json:"signature_character,omitempty"`
	Characters         map[string]CharacterAsset `json:"characters,omitempty"`
	Locations          map[string]LocationAsset  `json:"locations,omitempty"`
	Pages              []Page                    `json:"pages"`
	Title              *Title                    `json:"title,omitempty"`
}

// ParseManifest decodes manifest bytes, applies documented defaults and
// validates the result.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if strings.TrimSpace(m.GlobalStylePrompt) == "" {
		m.GlobalStylePrompt = defaultGlobalStyle
	}
	if m.Theme == "" {
		m.Theme = ThemeLight
	}
}

// Validate rejects structural problems. References to unknown characters or
// locations are not errors; they degrade at generation time instead.
func (m *Manifest) Validate() error {
	if m.Theme != ThemeLight && m.Theme != ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidManifest, m.Theme)
	}
	for id, c := range m.Characters {
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("%w: character %q has no asset path", ErrInvalidManifest, id)
		}
	}
	for i, p := range m.Pages {
		if p.DurationSeconds < 0 {
			return fmt.Errorf("%w: page %d has negative duration", ErrInvalidManifest, i+1)
		}
	}
	return nil
}

// StylePrompt returns the global style with the theme's lighting language
// appended.
func (m *Manifest) StylePrompt() string {
	if m.Theme == ThemeDark {
		return m.GlobalStylePrompt + darkStyleSuffix
	}
	return m.GlobalStylePrompt + lightStyleSuffix
}

// CharacterIDs returns the known character ids in a stable (lexical) order.
func (m *Manifest) CharacterIDs() []string {
	ids := make([]string, 0, len(m.Characters))
	for id := range m.Characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LocationIDs returns the known location ids in a stable (lexical) order.
func (m *Manifest) LocationIDs() []string {
	ids := make([]string, 0, len(m.Locations))
	for id := range m.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DisplayName renders an asset id as prose, e.g. "boots" -> "Boots".
func DisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}
