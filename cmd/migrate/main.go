package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/samirrijal/pinpoint/internal/pkg/config"
	"github.com/samirrijal/pinpoint/internal/pkg/logging"
)

var (
	app = kingpin.New("migrate", "Apply pinpoint database migrations.")
	dir = app.Flag("dir", "Directory holding NNN_name.{up,down}.sql files.").Default("migrations").String()

	upCmd   = app.Command("up", "Apply all pending migrations.")
	downCmd = app.Command("down", "Roll back migrations.")
	steps   = downCmd.Flag("steps", "Number of migrations to roll back; 0 rolls back everything.").Default("1").Int()

	versionCmd = app.Command("version", "Print the applied version.")

	forceCmd     = app.Command("force", "Set the version without running migrations, clearing the dirty flag.")
	forceVersion = forceCmd.Arg("version", "Version to record.").Required().Int()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	logging.Setup(logging.LevelFromEnv(), "text")

	cfg, err := config.Load("pinpoint-migrate")
	if err != nil {
		fatal("config", err)
	}

	m, err := open(*dir, cfg.Database.DSN())
	if err != nil {
		fatal("open migrations", err)
	}
	defer m.Close()

	if err := run(m, cmd); err != nil {
		fatal(cmd, err)
	}
}

func run(m *migrate.Migrate, cmd string) error {
	switch cmd {
	case upCmd.FullCommand():
		return ignoreNoChange(m.Up())
	case downCmd.FullCommand():
		if *steps <= 0 {
			return ignoreNoChange(m.Down())
		}
		return ignoreNoChange(m.Steps(-*steps))
	case versionCmd.FullCommand():
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
		return nil
	case forceCmd.FullCommand():
		return m.Force(*forceVersion)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// open builds a migrator over dir. The pgx/v5 driver registers the pgx5 scheme.
func open(dir, dsn string) (*migrate.Migrate, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), databaseURL(dsn))
	if err != nil {
		return nil, err
	}
	m.Log = migrateLogger{log: slog.Default().With("component", "migrate")}
	return m, nil
}

func databaseURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no change")
		return nil
	}
	return err
}

type migrateLogger struct{ log *slog.Logger }

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }

func fatal(what string, err error) {
	slog.Error(what+" failed", "error", err)
	os.Exit(1)
}
