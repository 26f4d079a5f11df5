package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/persistence"
)

type envKey struct{}

type environment struct {
	cfg    *config.Config
	logger *zap.Logger
}

func fromContext(ctx context.Context) (*environment, error) {
	env, ok := ctx.Value(envKey{}).(*environment)
	if !ok || env == nil {
		return nil, errors.New("configuration was not loaded")
	}
	return env, nil
}

// openPostgres refuses to start without a DSN; every command here needs the database.
func openPostgres(ctx context.Context, env *environment) (*persistence.Postgres, error) {
	if env.cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return persistence.NewPostgres(ctx, env.cfg.Postgres, env.logger)
}

// readSecret prompts on stderr and reads one line from in, without echo
// when in is a terminal.
func readSecret(label string, in *os.File) (string, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return readLine(in)
	}
	if _, err := fmt.Fprint(os.Stderr, label); err != nil {
		return "", err
	}
	raw, err := term.ReadPassword(int(in.Fd()))
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-dev"
	}
	rev := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		rev += "-dev"
	}
	return rev
}
