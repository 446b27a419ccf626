package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeBackend creates a backend directory with shell scripts standing in
// for Python ones.
func writeBackend(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(dir, name+".py"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// shInterpreter runs the stand-in scripts; sh reads -u as its nounset option.
const shInterpreter = "sh"

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := CreateRunCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	backend := writeBackend(t, map[string]string{
		"greet": `echo "hello $1 and $2"
echo '<<PROGRESS>>{"profile":"p","current":1,"total":4}<<PROGRESS>>'
echo "Arquivos salvos em output/run/file.txt"
`,
	})

	out, err := runCommand(t, "greet", "ann", "bob",
		"--backend-dir", backend,
		"--scripts-file", filepath.Join(backend, "missing.toml"),
		"--interpreter", shInterpreter,
		"--id", "g1")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"hello ann and bob",
		"Progress p: 1/4 (25%)",
		"Output folder: output/run",
		"Process finished with code 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandExitCode(t *testing.T) {
	backend := writeBackend(t, map[string]string{"fail": "echo nope >&2\nexit 4\n"})

	out, err := runCommand(t, "fail",
		"--backend-dir", backend,
		"--scripts-file", "",
		"--interpreter", shInterpreter)
	if err == nil {
		t.Fatalf("expected failure, output:\n%s", out)
	}
	if code := ExitCode(err); code != 4 {
		t.Errorf("ExitCode = %d, want 4", code)
	}
	if !strings.Contains(out, "nope") || !strings.Contains(out, "Process finished with code 4") {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommandUnknownScript(t *testing.T) {
	backend := writeBackend(t, nil)

	_, err := runCommand(t, "nothing",
		"--backend-dir", backend,
		"--scripts-file", "")
	if err == nil {
		t.Fatal("expected an error for an unknown script")
	}
	if code := ExitCode(err); code != 1 {
		t.Errorf("ExitCode = %d, want 1", code)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{exitError{code: 3}, 3},
		{fmt.Errorf("wrapped: %w", exitError{code: 2}), 2},
		{exitError{code: -1}, 1},
		{errors.New("other"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestScriptsCommand(t *testing.T) {
	backend := writeBackend(t, map[string]string{"profile_generator": "", "clean_bases": ""})

	cmd := CreateScriptsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--backend-dir", backend, "--scripts-file", ""})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "clean_bases") || !strings.Contains(lines[2], "single") {
		t.Errorf("output = %q", out.String())
	}
}
