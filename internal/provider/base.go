package provider

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	// MaxOutputSize is the maximum size of CLI output (10MB).
	MaxOutputSize = 10 * 1024 * 1024

	// DefaultTimeout is the default timeout for CLI commands.
	DefaultTimeout = 5 * time.Minute
)

// CLIProvider executes a command-line AI tool, sending the prompt on stdin
// and reading the generation from stdout.
type CLIProvider struct {
	name         string
	command      string
	args         []string
	modelFlag    string
	defaultModel string
	timeout      time.Duration
}

// NewCLIProvider creates a CLI-backed provider from configuration.
func NewCLIProvider(cfg Config) *CLIProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &CLIProvider{
		name:         cfg.Name,
		command:      cfg.Command,
		args:         cfg.Args,
		modelFlag:    cfg.ModelFlag,
		defaultModel: cfg.DefaultModel,
		timeout:      timeout,
	}
}

// Name returns the provider identifier.
func (p *CLIProvider) Name() string {
	return p.name
}

// Available checks if the CLI tool is installed and accessible.
func (p *CLIProvider) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

// validateExecutable checks if the CLI is available before execution.
func (p *CLIProvider) validateExecutable() error {
	if _, err := exec.LookPath(p.command); err != nil {
		return &CLIError{
			Provider: p.name,
			Message:  fmt.Sprintf("executable '%s' not found in PATH", p.command),
			Err:      ErrNotConfigured,
		}
	}
	return nil
}

func (p *CLIProvider) buildArgs(req *Request) []string {
	args := append([]string{}, p.args...)
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if p.modelFlag != "" && model != "" {
		args = append(args, p.modelFlag, model)
	}
	return args
}

func (p *CLIProvider) fullPrompt(req *Request) string {
	if req.System == "" {
		return req.Prompt
	}
	return req.System + "\n\n" + req.Prompt
}

// Generate runs the CLI tool and returns the buffered output.
func (p *CLIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return p.run(ctx, req, nil)
}

// GenerateStream runs the CLI tool, forwarding stdout to onChunk as it
// arrives, and returns the accumulated output.
func (p *CLIProvider) GenerateStream(ctx context.Context, req *Request, onChunk func(chunk string) error) (*Response, error) {
	return p.run(ctx, req, onChunk)
}

func (p *CLIProvider) run(ctx context.Context, req *Request, onChunk func(chunk string) error) (*Response, error) {
	if err := p.validateExecutable(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := p.buildArgs(req)
	slog.Debug("executing CLI command", "provider", p.name, "command", p.command, "args", args)

	start := time.Now()
	cmd := exec.CommandContext(ctx, p.command, args...)
	cmd.Stdin = strings.NewReader(p.fullPrompt(req))

	var stderr bytes.Buffer
	cmd.Stderr = newLimitedWriter(&stderr, MaxOutputSize)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &CLIError{Provider: p.name, Message: "failed to open stdout pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &CLIError{Provider: p.name, Message: "failed to start command", Err: err}
	}

	var out strings.Builder
	reader := bufio.NewReader(stdout)
	buf := make([]byte, 4096)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 && out.Len() < MaxOutputSize {
			chunk := string(buf[:n])
			out.WriteString(chunk)
			if onChunk != nil {
				if cbErr := onChunk(chunk); cbErr != nil {
					cmd.Process.Kill()
					cmd.Wait()
					return nil, &CLIError{Provider: p.name, Message: "stream callback failed", Err: cbErr}
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			break
		}
	}

	if err := cmd.Wait(); err != nil {
		slog.Error("CLI command failed", "provider", p.name, "error", err, "stderr", stderr.String())
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &CLIError{Provider: p.name, Message: "command timed out", Err: ctx.Err()}
		}
		msg := "command failed"
		if stderr.Len() > 0 {
			msg = strings.TrimSpace(stderr.String())
		}
		return nil, &CLIError{Provider: p.name, Message: msg, Err: err}
	}

	content := strings.TrimSpace(out.String())
	slog.Debug("CLI command successful", "provider", p.name, "output_len", len(content))

	return &Response{
		Content:  content,
		Model:    req.Model,
		Provider: p.name,
		Duration: time.Since(start),
	}, nil
}

// limitedWriter wraps an io.Writer and limits total bytes written.
type limitedWriter struct {
	w     io.Writer
	n     int64
	limit int64
}

func newLimitedWriter(w io.Writer, limit int64) *limitedWriter {
	return &limitedWriter{w: w, limit: limit}
}

func (l *limitedWriter) Write(p []byte) (n int, err error) {
	if l.n >= l.limit {
		return len(p), nil // Discard, but don't error
	}
	remaining := l.limit - l.n
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = l.w.Write(p)
	l.n += int64(n)
	return n, err
}
