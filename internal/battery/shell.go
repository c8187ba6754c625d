package battery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Shell runs the battery as a subprocess resolved once at construction,
// mirroring the teacher's resolveEditor-then-exec.CommandContext idiom.
type Shell struct {
	path string
}

// NewShell resolves executablePath via exec.LookPath so construction fails
// fast if the battery isn't installed, rather than on the first Run call.
func NewShell(executablePath string) (*Shell, error) {
	resolved, err := exec.LookPath(executablePath)
	if err != nil {
		return nil, fmt.Errorf("battery: resolve executable %q: %w", executablePath, err)
	}

	return &Shell{path: resolved}, nil
}

// Run invokes the battery with args split on whitespace and decodes its
// stdout. Each output line must be "name\tverdict"; any other line shape
// is ErrBatteryProtocol.
func (s *Shell) Run(ctx context.Context, args string) (map[string]string, error) {
	cmd := exec.CommandContext(ctx, s.path, strings.Fields(args)...)

	var stdout bytes.Buffer

	cmd.Stdout = &stdout

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("%w: battery exited with code %d: %s", ErrBatteryProtocol, exitErr.ExitCode(), stderr.String())
		}

		return nil, fmt.Errorf("battery: run: %w", runErr)
	}

	return decodeVerdicts(stdout.Bytes())
}

func decodeVerdicts(output []byte) (map[string]string, error) {
	verdicts := map[string]string{}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, verdict, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: malformed output line %q", ErrBatteryProtocol, line)
		}

		verdicts[name] = verdict
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrBatteryProtocol, err)
	}

	return verdicts, nil
}
