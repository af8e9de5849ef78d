package assemble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner abstracts process execution so tests can intercept the
// ffmpeg invocation.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Exec is the default CommandRunner. It surfaces stderr in the returned
// error because ffmpeg reports its diagnostics there.
func Exec(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %v: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// ConcatClips joins the clips, in the order given, into outPath using the
// ffmpeg concat demuxer with stream copy. The list file is written next to
// the clips and left behind for debugging.
func ConcatClips(ctx context.Context, run CommandRunner, ffmpegPath string, clips []string, listPath, outPath string) error {
	if len(clips) == 0 {
		return errors.New("assemble: no clips to concatenate")
	}
	if run == nil {
		run = Exec
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	var list strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&list, "file '%s'\n", clip)
	}
	if err := os.MkdirAll(filepath.Dir(listPath), 0o755); err != nil {
		return fmt.Errorf("assemble: ensure list directory: %w", err)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("assemble: write concat list: %w", err)
	}

	return run(ctx, ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
}
