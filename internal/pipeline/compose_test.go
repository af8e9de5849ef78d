package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"storybook/internal/domain"
)

func locationManifest() *domain.Manifest {
	return &domain.Manifest{
		Locations: map[string]domain.LocationAsset{
			"beach":  {Tags: []string{"sand", "waves", "shore"}},
			"forest": {Tags: []string{"trees", "moss"}},
			"cave":   {Tags: []string{"dark", "echo"}},
		},
	}
}

func TestResolveLocationPicksHighestScore(t *testing.T) {
	m := locationManifest()
	got := ResolveLocation(m, "They ran across the SAND toward the waves by the trees.")
	if got != "beach" {
		t.Fatalf("location = %q, want beach", got)
	}
}

func TestResolveLocationTieIsLexical(t *testing.T) {
	m := locationManifest()
	// One tag hit each for beach and forest; "beach" sorts first.
	got := ResolveLocation(m, "sand near the trees")
	if got != "beach" {
		t.Fatalf("location = %q, want beach", got)
	}
}

func TestResolveLocationNoMatch(t *testing.T) {
	m := locationManifest()
	if got := ResolveLocation(m, "a quiet kitchen at breakfast"); got != "" {
		t.Fatalf("location = %q, want empty", got)
	}
}

func testRunContext(m *domain.Manifest, refs map[string]string) *RunContext {
	return &RunContext{
		manifest: m,
		style:    m.StylePrompt(),
		charIDs:  m.CharacterIDs(),
		charRefs: refs,
	}
}

func charManifest() *domain.Manifest {
	return &domain.Manifest{
		SignatureCharacter: "boots",
		Characters: map[string]domain.CharacterAsset{
			"zoe":   {Path: "assets/characters/zoe.png", Description: "Zoe wears a red coat."},
			"adam":  {Path: "assets/characters/adam.png", Description: "Adam has a blue cap."},
			"boots": {Path: "assets/characters/boots.png", Description: "Boots is a small grey cat."},
		},
	}
}

func TestRequestedCharacters(t *testing.T) {
	rc := testRunContext(charManifest(), nil)

	if got := rc.requestedCharacters(nil); !reflect.DeepEqual(got, []string{"adam", "boots", "zoe"}) {
		t.Fatalf("nil include = %v", got)
	}
	if got := rc.requestedCharacters([]string{}); len(got) != 0 {
		t.Fatalf("empty include = %v, want none", got)
	}
	if got := rc.requestedCharacters([]string{"zoe", "ghost"}); !reflect.DeepEqual(got, []string{"zoe"}) {
		t.Fatalf("filtered include = %v", got)
	}
}

func TestConsistencyRulesIncludesSignatureLock(t *testing.T) {
	rc := testRunContext(charManifest(), nil)
	rules := rc.consistencyRules([]string{"adam", "boots"})

	if !strings.Contains(rules, "ABSOLUTE CONSISTENCY RULES") {
		t.Fatal("base rule missing")
	}
	if !strings.Contains(rules, "Adam has a blue cap.") {
		t.Fatal("character description missing")
	}
	if !strings.Contains(rules, "BOOTS LOCK: Include EXACTLY ONE Boots.") {
		t.Fatalf("signature lock missing: %q", rules)
	}
	if strings.Contains(rules, "Do NOT include any cats or pets") {
		t.Fatal("exclusion present alongside lock")
	}
}

func TestConsistencyRulesExcludesSignature(t *testing.T) {
	rc := testRunContext(charManifest(), nil)
	rules := rc.consistencyRules([]string{"adam"})

	if !strings.Contains(rules, "IMPORTANT: Do NOT include any cats or pets on this page.") {
		t.Fatalf("exclusion missing: %q", rules)
	}
	if strings.Contains(rules, "LOCK") {
		t.Fatalf("unexpected lock: %q", rules)
	}
}

func TestConsistencyRulesNoSignature(t *testing.T) {
	m := charManifest()
	m.SignatureCharacter = ""
	rc := testRunContext(m, nil)
	rules := rc.consistencyRules([]string{"adam"})
	if strings.Contains(rules, "LOCK") || strings.Contains(rules, "cats or pets") {
		t.Fatalf("signature language without signature: %q", rules)
	}
}

func TestAssembleRefsBaseFirstSignaturePromoted(t *testing.T) {
	rc := testRunContext(charManifest(), map[string]string{
		"adam":  "uri-adam",
		"boots": "uri-boots",
		"zoe":   "uri-zoe",
	})

	refs := rc.assembleRefs("uri-base", []string{"adam", "boots", "zoe"})
	want := []string{"uri-base", "uri-boots", "uri-adam"}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
}

func TestAssembleRefsNoBase(t *testing.T) {
	rc := testRunContext(charManifest(), map[string]string{
		"adam": "uri-adam",
		"zoe":  "uri-zoe",
	})

	refs := rc.assembleRefs("", []string{"adam", "zoe"})
	want := []string{"uri-adam", "uri-zoe"}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
}

func TestAssembleRefsSkipsMissingEncodings(t *testing.T) {
	rc := testRunContext(charManifest(), map[string]string{"zoe": "uri-zoe"})

	refs := rc.assembleRefs("uri-base", []string{"adam", "boots", "zoe"})
	want := []string{"uri-base", "uri-zoe"}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
}
