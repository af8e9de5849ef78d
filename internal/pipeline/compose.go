package pipeline

import (
	"fmt"
	"strings"

	"storybook/internal/domain"
)

// At most three reference images accompany a single generation call; the
// base plate always occupies the first slot.
const maxInputImages = 3

const noTextDirective = "TEXT BAN: Do NOT include any readable text anywhere in the illustration. " +
	"No letters, words, numbers, signs, banners, UI overlays, subtitles, watermarks, " +
	"labels, runes, or map text. The image must contain ZERO readable characters."

const baseConsistencyRule = "ABSOLUTE CONSISTENCY RULES: Do NOT change clothing colors. " +
	"Do NOT add hats, armor, backpacks, or accessories not in the reference images. " +
	"Do NOT change faces, ages, or body shapes. No duplicate characters or animals."

const plateInstruction = "Use the FIRST input image as the scene plate. Preserve its camera angle and environment. " +
	"Insert characters naturally: feet on ground, correct perspective, shadows. " +
	"Characters must be normal human-sized relative to buildings. "

// ResolveLocation scores every known location by how many of its tags appear
// as substrings of the lower-cased text and returns the best-scoring id, or
// "" when no tag matched anywhere. Locations are visited in lexical id order
// so ties resolve deterministically to the first id.
func ResolveLocation(m *domain.Manifest, text string) string {
	t := strings.ToLower(text)
	bestID, bestScore := "", 0
	for _, id := range m.LocationIDs() {
		score := 0
		for _, tag := range m.Locations[id].Tags {
			if tag != "" && strings.Contains(t, strings.ToLower(tag)) {
				score++
			}
		}
		if score > bestScore {
			bestScore, bestID = score, id
		}
	}
	return bestID
}

// requestedCharacters filters the page's include list down to known
// characters, in stable id order. A nil list means all known characters; an
// explicit empty list means none.
func (rc *RunContext) requestedCharacters(include []string) []string {
	if include == nil {
		return append([]string(nil), rc.charIDs...)
	}
	wanted := make(map[string]struct{}, len(include))
	for _, id := range include {
		wanted[id] = struct{}{}
	}
	var out []string
	for _, id := range rc.charIDs {
		if _, ok := wanted[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// consistencyRules builds the textual constraints that keep character
// appearance stable across pages: the fixed base rule, each requested
// character's stored description, and the signature-pet lock or exclusion.
func (rc *RunContext) consistencyRules(requested []string) string {
	rules := []string{baseConsistencyRule}
	for _, id := range requested {
		if d := rc.manifest.Characters[id].Description; d != "" {
			rules = append(rules, d)
		}
	}
	if sig := rc.manifest.SignatureCharacter; sig != "" {
		name := domain.DisplayName(sig)
		if containsID(requested, sig) {
			rules = append(rules, fmt.Sprintf(
				"%s LOCK: Include EXACTLY ONE %s. Match the %s reference EXACTLY. "+
					"Do NOT change fur color or markings. Do NOT add a second one.",
				strings.ToUpper(name), name, name))
		} else {
			rules = append(rules, "IMPORTANT: Do NOT include any cats or pets on this page.")
		}
	}
	return strings.Join(rules, " ")
}

// assembleRefs fills the reference slots for one generation call: the base
// plate first, then requested character references with the signature
// character promoted to the slot right after the base.
func (rc *RunContext) assembleRefs(baseURI string, requested []string) []string {
	refs := make([]string, 0, maxInputImages)
	if baseURI != "" {
		refs = append(refs, baseURI)
	}
	order := requested
	if sig := rc.manifest.SignatureCharacter; sig != "" && containsID(requested, sig) {
		order = make([]string, 0, len(requested))
		order = append(order, sig)
		for _, id := range requested {
			if id != sig {
				order = append(order, id)
			}
		}
	}
	for _, id := range order {
		if len(refs) >= maxInputImages {
			break
		}
		if uri := rc.charRefs[id]; uri != "" {
			refs = append(refs, uri)
		}
	}
	return refs
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
