//go:build linux && (386 || amd64 || arm64)

package interpose_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestPreloadBlockReadExample builds the blockread example as a c-shared
// library and preloads it into an ordinary C program. The hooked read(2)
// must hand back the spoofed bytes instead of the file's contents.
func TestPreloadBlockReadExample(t *testing.T) {
	requireCommand(t, "head")
	requireCCompiler(t)

	outDir := t.TempDir()
	libPath := buildPreloadLib(t, outDir)

	secretPath := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(secretPath, []byte("the real contents\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	cmd := exec.Command("head", "-c", "12", secretPath)
	cmd.Env = append(os.Environ(), "LD_PRELOAD="+libPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("head under LD_PRELOAD: %v\n%s", err, out)
	}

	if got, want := string(out), "No peeking!\n"; got != want {
		t.Fatalf("hooked read output: got %q, want %q", got, want)
	}
}

func buildPreloadLib(t *testing.T, outDir string) string {
	t.Helper()

	outputPath := filepath.Join(outDir, "blockread.so")
	cmd := exec.Command("go", "build",
		"-buildmode=c-shared",
		"-trimpath",
		"-o", outputPath,
		"./examples/blockread",
	)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build blockread c-shared lib: %v\n%s", err, out)
	}

	// Drop the generated header sidecar.
	_ = os.Remove(strings.TrimSuffix(outputPath, ".so") + ".h")
	return outputPath
}

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("command %q not found in PATH", name)
	}
}

func requireCCompiler(t *testing.T) {
	t.Helper()
	for _, cc := range []string{"gcc", "clang", "cc"} {
		if _, err := exec.LookPath(cc); err == nil {
			return
		}
	}
	t.Skip("no C compiler found in PATH")
}
