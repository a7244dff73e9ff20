package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/cli/config"
	"github.com/conduit-lang/restbind/internal/cli/ui"
	"github.com/conduit-lang/restbind/internal/logging"
	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/session"
)

// environment is what every command needs before doing its work
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
}

// loadEnvironment reads the configuration and builds the logger. Config
// problems are printed to errOut in full before the error is returned.
func loadEnvironment(flags *globalFlags, errOut io.Writer) (*environment, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprint(errOut, ui.ConfigError(err.Error(), flags.noColor))
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, noColor: flags.noColor}, nil
}

func (env *environment) openDatabase(ctx context.Context) (*sql.DB, session.Dialect, error) {
	return session.Open(ctx, session.Config{
		Driver:       env.cfg.Database.Driver,
		URL:          env.cfg.Database.URL,
		MaxOpenConns: env.cfg.Database.MaxOpenConns,
	})
}

// createTables creates a table for every entity of a, referenced tables
// first, reporting each one on bar when given
func createTables(ctx context.Context, sess *session.Session, a *app.App, bar *ui.ProgressBar) error {
	order, err := a.Registry.CreationOrder()
	if err != nil {
		return err
	}
	for _, s := range order {
		if bar != nil {
			bar.Step(s.TableName)
		}
		if err := sess.CreateTable(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// findModel resolves an entity or resource name. Unknown names are
// reported to errOut with the closest matches.
func findModel(a *app.App, name string, errOut io.Writer, noColor bool) (*model.Model, error) {
	if m, ok := a.Model(name); ok {
		return m, nil
	}

	var candidates []string
	for _, m := range a.Models() {
		candidates = append(candidates, m.Name())
	}
	candidates = append(candidates, a.Resources()...)

	fmt.Fprint(errOut, ui.EntityNotFoundError(name, ui.FindSimilar(name, candidates, nil), noColor))
	return nil, fmt.Errorf("unknown entity %q", name)
}
