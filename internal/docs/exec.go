package docs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExecGenerator runs an external site generator command, e.g. mkdocs.
// The command receives the source directory and writes into a temp
// output directory whose path replaces the {output} placeholder.
type ExecGenerator struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecGenerator creates a generator around the given command line.
// Supported placeholders in args: {source}, {output}.
func NewExecGenerator(command string, args []string, timeout time.Duration, logger *slog.Logger) *ExecGenerator {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecGenerator{command: command, args: args, timeout: timeout, logger: logger}
}

func (g *ExecGenerator) Generate(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if req.SourceDir == "" {
		return nil, fmt.Errorf("generate %s: empty source dir", req.EntityRef)
	}
	if _, err := os.Stat(req.SourceDir); err != nil {
		return nil, fmt.Errorf("generate %s: source dir: %w", req.EntityRef, err)
	}

	outDir, err := os.MkdirTemp("", "docs-build-*")
	if err != nil {
		return nil, fmt.Errorf("generate %s: temp dir: %w", req.EntityRef, err)
	}

	args := make([]string, len(g.args))
	for i, a := range g.args {
		a = strings.ReplaceAll(a, "{source}", req.SourceDir)
		a = strings.ReplaceAll(a, "{output}", outDir)
		args[i] = a
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, g.command, args...)
	cmd.Dir = req.SourceDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.RemoveAll(outDir)
		g.logger.Error("docs generation failed",
			"entity", req.EntityRef,
			"command", g.command,
			"output", truncate(string(out), 2000))
		return nil, fmt.Errorf("generate %s: %s: %w", req.EntityRef, g.command, err)
	}

	elapsed := time.Since(start)
	g.logger.Info("docs generated",
		"entity", req.EntityRef,
		"output_dir", outDir,
		"duration", elapsed)

	return &BuildResult{
		EntityRef: req.EntityRef,
		OutputDir: outDir,
		Duration:  elapsed,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Generator = (*ExecGenerator)(nil)
