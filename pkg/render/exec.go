package render

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// Executor runs the renderer. args[0] is the program, stdin is fed to it
// and its standard output is returned.
type Executor interface {
	Run(ctx context.Context, args []string, stdin []byte) ([]byte, error)
}

// ExecExecutor runs the renderer as a subprocess.
type ExecExecutor struct{}

// NewExecExecutor returns an executor backed by os/exec.
func NewExecExecutor() ExecExecutor { return ExecExecutor{} }

// Run starts args[0] with the remaining arguments and waits for it to exit.
// Standard error is captured and attached to the error when the process
// fails.
func (ExecExecutor) Run(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty renderer command line")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProcess, err,
			"%s not found. Install Structurizr CLI or set %q", args[0], "structurizr_path")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(stdin)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProcess, err, "%s: %s", args[0], strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}

// Ensure ExecExecutor implements Executor.
var _ Executor = ExecExecutor{}
