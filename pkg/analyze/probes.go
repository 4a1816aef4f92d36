package analyze

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/grovetools/arbor/command"
)

// testProbes is the ordered ladder of conventional test invocations. The
// first one that spawns wins; results from multiple commands are never
// merged.
var testProbes = [][]string{
	{"npm", "test"},
	{"pytest"},
	{"python", "-m", "pytest"},
	{"make", "test"},
	{"go", "test", "./..."},
}

const maxCapturedOutput = 1000

// RunResult is the outcome of one probe invocation.
type RunResult struct {
	// Spawned reports whether the process started at all; a non-zero exit
	// still counts as spawned.
	Spawned  bool
	TimedOut bool
	ExitCode int
	Output   string
}

// Runner spawns one command in a directory under a hard timeout.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string, timeout time.Duration) RunResult
}

type execRunner struct {
	builder *command.SafeBuilder
}

func newExecRunner() *execRunner {
	return &execRunner{builder: command.NewSafeBuilder()}
}

func (r *execRunner) Run(ctx context.Context, dir string, argv []string, timeout time.Duration) RunResult {
	cmd, err := r.builder.Build(ctx, argv[0], argv[1:]...)
	if err != nil {
		return RunResult{}
	}
	cmd = cmd.WithTimeout(timeout)

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.CombinedOutput()
	captured := string(output)
	if len(captured) > maxCapturedOutput {
		captured = captured[:maxCapturedOutput]
	}

	if err == nil {
		return RunResult{Spawned: true, ExitCode: 0, Output: captured}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The process ran. A kill from the timeout context reports as a
		// negative exit code on the ProcessState.
		if execCmd.ProcessState != nil && execCmd.ProcessState.ExitCode() < 0 {
			return RunResult{Spawned: true, TimedOut: true, Output: captured}
		}
		return RunResult{Spawned: true, ExitCode: exitErr.ExitCode(), Output: captured}
	}

	// Could not spawn (binary missing, permission denied)
	return RunResult{}
}

type qualityProbe struct {
	tool string
	argv []string
}

var pythonProbes = []qualityProbe{
	{tool: "ruff", argv: []string{"ruff", "check", "."}},
	{tool: "black", argv: []string{"black", "--check", "."}},
	{tool: "mypy", argv: []string{"mypy", "."}},
}

var jsProbes = []qualityProbe{
	{tool: "eslint", argv: []string{"npm", "run", "lint"}},
	{tool: "prettier", argv: []string{"npm", "run", "format:check"}},
}

var goProbes = []qualityProbe{
	{tool: "gofmt", argv: []string{"gofmt", "-l", "."}},
	{tool: "govet", argv: []string{"go", "vet", "./..."}},
}

// qualityProbes decides which checks plausibly apply to the worktree, by
// file extension. Python tooling additionally honors pyproject.toml: when
// the file configures a subset of ruff/black/mypy, only that subset runs.
func qualityProbes(dir string) []qualityProbe {
	exts := scanExtensions(dir)

	var probes []qualityProbe
	if exts[".py"] {
		probes = append(probes, pythonProbesFor(dir)...)
	}
	if exts[".js"] || exts[".ts"] || exts[".jsx"] || exts[".tsx"] {
		probes = append(probes, jsProbes...)
	}
	if exts[".go"] {
		probes = append(probes, goProbes...)
	}
	return probes
}

// pythonProbesFor narrows the Python checks to the tools configured in
// pyproject.toml, falling back to all of them when the file is absent,
// unparseable, or configures none.
func pythonProbesFor(dir string) []qualityProbe {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return pythonProbes
	}

	var doc struct {
		Tool map[string]interface{} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return pythonProbes
	}

	var configured []qualityProbe
	for _, probe := range pythonProbes {
		if _, ok := doc.Tool[probe.tool]; ok {
			configured = append(configured, probe)
		}
	}
	if len(configured) == 0 {
		return pythonProbes
	}
	return configured
}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
}

func scanExtensions(dir string) map[string]bool {
	exts := make(map[string]bool)
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ext := filepath.Ext(d.Name()); ext != "" {
			exts[ext] = true
		}
		return nil
	})
	return exts
}

func joinArgv(argv []string) string {
	return strings.Join(argv, " ")
}
