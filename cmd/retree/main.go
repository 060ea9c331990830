package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/execute"
)

// Exit codes. Scripts branch on these, so they are part of the
// interface and must stay stable.
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitCollisions  = 3
	exitPermissions = 4
)

// codedError carries an explicit exit code up through cobra.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func usageErr(err error) error {
	return &codedError{code: exitUsage, err: err}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	zerolog.DefaultContextLogger = &logger
	ctx := logger.WithContext(context.Background())

	cmd := newRootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var coded *codedError
	switch {
	case errors.As(err, &coded):
		fmt.Fprintln(os.Stderr, "retree: "+coded.Error())
		return coded.code
	case errors.Is(err, execute.ErrCollisions):
		return exitCollisions
	default:
		fmt.Fprintln(os.Stderr, "retree: "+err.Error())
		return exitError
	}
}
