package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storybook/internal/domain"
)

func TestOpenRejectsBadIDs(t *testing.T) {
	base := t.TempDir()
	for _, id := range []string{"", ".", "..", "a/b", `a\b`, " "} {
		if _, err := Open(base, id); err == nil {
			t.Errorf("Open(%q): expected error", id)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	s, err := Open(base, "abcd1234")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	info, err := os.Stat(s.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("project root missing: %v", err)
	}
	if s.ID() != "abcd1234" {
		t.Fatalf("id = %q", s.ID())
	}
}

func TestWriteAndPathRejectTraversal(t *testing.T) {
	s := mustOpen(t)
	for _, key := range []string{"../escape.txt", "a/../../escape.txt", ""} {
		if _, err := s.Write(key, []byte("x")); err == nil {
			t.Errorf("Write(%q): expected error", key)
		}
	}
	if _, err := s.Path("../../etc/passwd"); err == nil {
		t.Error("Path traversal: expected error")
	}
}

func TestWriteCreatesParents(t *testing.T) {
	s := mustOpen(t)
	key, err := s.Write("generated_images/page_1.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "generated_images/page_1.png" {
		t.Fatalf("key = %q", key)
	}
	if !s.Exists(key) {
		t.Fatal("artifact missing after write")
	}
}

func TestGlobSortedRelativeKeys(t *testing.T) {
	s := mustOpen(t)
	for _, k := range []string{
		"generated_images/page_2.png",
		"generated_images/page_1.png",
		"generated_images/title_page.png",
	} {
		if _, err := s.Write(k, []byte("x")); err != nil {
			t.Fatalf("Write(%q): %v", k, err)
		}
	}
	keys, err := s.Glob("generated_images/page_*.png")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	want := []string{"generated_images/page_1.png", "generated_images/page_2.png"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestReadManifestMissing(t *testing.T) {
	s := mustOpen(t)
	if s.HasManifest() {
		t.Fatal("unexpected manifest")
	}
	if _, err := s.ReadManifest(); !errors.Is(err, domain.ErrNoManifest) {
		t.Fatalf("err = %v, want ErrNoManifest", err)
	}
}

func TestManifestRoundtrip(t *testing.T) {
	s := mustOpen(t)
	raw := []byte(`{"pages":[{"raw_description":"a walk","raw_narration_text":"We walked."}]}`)
	if err := s.WriteManifest(raw); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if !s.HasManifest() {
		t.Fatal("manifest not persisted")
	}
	m, err := s.ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(m.Pages) != 1 || m.Pages[0].RawDescription != "a walk" {
		t.Fatalf("manifest = %+v", m)
	}
}

func TestWriteManifestRejectsInvalid(t *testing.T) {
	s := mustOpen(t)
	if err := s.WriteManifest([]byte(`{"theme":"neon","pages":[]}`)); !errors.Is(err, domain.ErrInvalidManifest) {
		t.Fatalf("err = %v, want ErrInvalidManifest", err)
	}
	if s.HasManifest() {
		t.Fatal("invalid manifest was persisted")
	}
}

func TestArtifactKeys(t *testing.T) {
	if got := PageImageKey(3); got != "generated_images/page_3.png" {
		t.Fatalf("PageImageKey = %q", got)
	}
	if got := PageVideoKey(3); got != "generated_videos/page_3.mp4" {
		t.Fatalf("PageVideoKey = %q", got)
	}
	if got := EnvImageKey(2); got != "generated_images/_env_2.png" {
		t.Fatalf("EnvImageKey = %q", got)
	}
}

func mustOpen(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "proj1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestExistsIgnoresDirectories(t *testing.T) {
	s := mustOpen(t)
	if err := os.MkdirAll(filepath.Join(s.Root(), "generated_images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if s.Exists("generated_images") {
		t.Fatal("directory reported as artifact")
	}
}
