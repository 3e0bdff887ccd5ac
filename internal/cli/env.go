package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lu-zhengda/mailboard/internal/app"
	"github.com/lu-zhengda/mailboard/internal/config"
	"github.com/lu-zhengda/mailboard/internal/provider/fallback"
	"github.com/lu-zhengda/mailboard/internal/provider/remote"
	"github.com/lu-zhengda/mailboard/internal/store"
	"github.com/lu-zhengda/mailboard/internal/store/sqlite"
)

var errNotSignedIn = errors.New("not signed in; run 'mailboard login' first")

// env is everything a command needs: config, the session and the email
// service wired to the remote API with the sample-data fallback.
type env struct {
	cfg     *config.Config
	session *app.SessionController
	emails  *app.EmailService

	closers []func() error
}

func newEnv(ctx context.Context) (*env, error) {
	if err := config.LoadDotEnv(".env", filepath.Join(config.ConfigDir(), ".env")); err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}

	kv, err := e.openKV()
	if err != nil {
		return nil, err
	}

	e.session = app.NewSessionController(store.NewSessionStore(kv), nil, app.SessionOptions{
		DisplayName: cfg.Demo.DisplayName,
		Avatar:      cfg.Demo.Avatar,
		MockDelay:   cfg.Demo.MockDelayDuration(),
	})

	opts := remote.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.TimeoutDuration(),
		RateLimit: cfg.API.RateLimit,
	}
	if traceFlag {
		opts.Transport = remote.TraceTransport(http.DefaultTransport, log.New(os.Stderr, "", log.LstdFlags))
	}
	api := remote.New(opts, e.session)
	e.session.SetAuthenticator(api)

	if err := e.session.Restore(ctx); err != nil {
		e.Close()
		return nil, err
	}

	e.emails = app.NewEmailService(api, fallback.New(), cfg.Cache.TTLDuration())
	return e, nil
}

// openKV opens the configured session backend.
func (e *env) openKV() (store.KV, error) {
	switch e.cfg.Session.Backend {
	case config.BackendKeyring:
		return store.NewKeyringKV(), nil
	case config.BackendMemory:
		return store.NewMemoryKV(), nil
	default:
		db, err := openDB()
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, db.Close)
		return db, nil
	}
}

// requireSession fails unless someone is signed in.
func (e *env) requireSession() error {
	if e.session.State() != app.StateAuthenticated {
		return errNotSignedIn
	}
	return nil
}

func (e *env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openDB creates the data directory and opens the SQLite database.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mailboard.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
