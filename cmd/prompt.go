package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// secretPrompter reads passwords line by line. On a terminal the input is
// masked; piped input is read as-is so scripts can feed passwords on stdin.
type secretPrompter struct {
	rl       *readline.Instance
	out      io.Writer
	terminal bool
}

func newSecretPrompter(in io.Reader, out io.Writer) (*secretPrompter, error) {
	terminal := isTerminal(in)

	cfg := &readline.Config{
		Stdin:                  io.NopCloser(in),
		Stdout:                 out,
		DisableAutoSaveHistory: true,
		HistoryLimit:           -1,
		FuncIsTerminal:         func() bool { return terminal },
	}
	if !terminal {
		cfg.FuncMakeRaw = func() error { return nil }
		cfg.FuncExitRaw = func() error { return nil }
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return &secretPrompter{rl: rl, out: out, terminal: terminal}, nil
}

// read returns value, or prompts for one line when value is empty.
func (p *secretPrompter) read(prompt, value string) (string, error) {
	if value != "" {
		return value, nil
	}

	cfg := p.rl.GenPasswordConfig()
	cfg.Prompt = prompt + ": "
	cfg.FuncIsTerminal = func() bool { return p.terminal }
	if !p.terminal {
		printf(p.out, "%s", cfg.Prompt)
	}

	line, err := p.rl.ReadPasswordWithConfig(cfg)
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", fmt.Errorf("%s entry interrupted", strings.ToLower(prompt))
	case err != nil && !errors.Is(err, io.EOF):
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(prompt), err)
	}

	secret := strings.TrimRight(string(line), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(prompt))
	}
	return secret, nil
}

func (p *secretPrompter) Close() {
	_ = p.rl.Close()
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}
