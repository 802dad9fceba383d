// Package toolchain shells out to the host's native assembler and linker to
// turn generated AArch64 assembly text into an executable, the way cmd/smog
// shells out to nothing (it has its own VM) but in the same "collaborator
// wraps an external process" shape as the rest of the driver's supporting
// packages.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Toolchain locates and invokes the macOS/Apple Silicon native build tools:
// the Xcode SDK (for the linker's -syslibroot), the assembler (as), and the
// linker (ld).
type Toolchain struct {
	// SDKPath is the output of `xcrun -sdk macosx --show-sdk-path`, cached
	// once per Toolchain so repeated Assemble/Link calls don't re-spawn
	// xcrun.
	SDKPath string
}

// New probes the host for an Xcode SDK path. It fails fast with a wrapped
// error if xcrun is missing or reports a non-zero exit, since nothing
// downstream can proceed without it.
func New(ctx context.Context) (*Toolchain, error) {
	out, err := runCaptured(ctx, "xcrun", "-sdk", "macosx", "--show-sdk-path")
	if err != nil {
		return nil, errors.Wrap(err, "toolchain: locating Xcode SDK via xcrun")
	}
	return &Toolchain{SDKPath: trimTrailingNewline(out)}, nil
}

// Assemble invokes `as` on an assembly source file, producing an object
// file at objPath.
func (t *Toolchain) Assemble(ctx context.Context, asmPath, objPath string) error {
	if err := os.MkdirAll(filepath.Dir(objPath), 0o755); err != nil {
		return errors.Wrapf(err, "toolchain: creating directory for %s", objPath)
	}
	cmd := exec.CommandContext(ctx, "as", "-arch", "arm64", "-o", objPath, asmPath)
	if _, err := runCmd(cmd); err != nil {
		return errors.Wrapf(err, "toolchain: assembling %s", asmPath)
	}
	return nil
}

// Link invokes `ld` on an object file, producing an executable at exePath.
func (t *Toolchain) Link(ctx context.Context, objPath, exePath string) error {
	if t.SDKPath == "" {
		return errors.New("toolchain: no SDK path resolved; call New before Link")
	}
	cmd := exec.CommandContext(ctx, "ld",
		"-macosx_version_min", "13.0.0",
		"-o", exePath,
		objPath,
		"-lSystem",
		"-syslibroot", t.SDKPath,
		"-e", "_main",
		"-arch", "arm64",
	)
	if _, err := runCmd(cmd); err != nil {
		return errors.Wrapf(err, "toolchain: linking %s", objPath)
	}
	if err := os.Chmod(exePath, 0o755); err != nil {
		return errors.Wrapf(err, "toolchain: making %s executable", exePath)
	}
	return nil
}

// AssembleAndLink is the common case: assemble asmPath to a sibling .o file,
// link it to exePath, and clean up the intermediate object file.
func (t *Toolchain) AssembleAndLink(ctx context.Context, asmPath, exePath string) error {
	objPath := strings.TrimSuffix(asmPath, filepath.Ext(asmPath)) + ".o"
	defer os.Remove(objPath)

	if err := t.Assemble(ctx, asmPath, objPath); err != nil {
		return err
	}
	return t.Link(ctx, objPath, exePath)
}

func runCaptured(ctx context.Context, name string, args ...string) (string, error) {
	return runCmd(exec.CommandContext(ctx, name, args...))
}

func runCmd(cmd *exec.Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w (stderr: %s)", cmd.Path, err, stderr.String())
	}
	return stdout.String(), nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
