package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fractalizend/screener/internal/admin"
	"github.com/fractalizend/screener/internal/alert"
	"github.com/fractalizend/screener/internal/api"
	"github.com/fractalizend/screener/internal/calendar"
	"github.com/fractalizend/screener/internal/config"
	"github.com/fractalizend/screener/internal/ingest"
	"github.com/fractalizend/screener/internal/metrics"
	"github.com/fractalizend/screener/internal/notifier"
	"github.com/fractalizend/screener/internal/notifier/email"
	"github.com/fractalizend/screener/internal/notifier/kafka"
	"github.com/fractalizend/screener/internal/notifier/telegram"
	"github.com/fractalizend/screener/internal/notifier/webhook"
	"github.com/fractalizend/screener/internal/notifier/whatsapp"
	"github.com/fractalizend/screener/internal/screener"
	"github.com/fractalizend/screener/internal/storage/archive"
	storecal "github.com/fractalizend/screener/internal/storage/calendar"
	"github.com/fractalizend/screener/internal/storage/docstore"
	"github.com/fractalizend/screener/internal/storage/pair"
	"github.com/fractalizend/screener/internal/storage/preference"
	"go.uber.org/zap"
)

// notifierFactories builds an unconfigured notifier per type; Init fills in
// the params.
var notifierFactories = map[string]func() notifier.Notifier{
	"email":    func() notifier.Notifier { return email.New("", 0, "", "", "", nil) },
	"kafka":    func() notifier.Notifier { return kafka.New(nil, "") },
	"telegram": func() notifier.Notifier { return telegram.New("", "") },
	"webhook":  func() notifier.Notifier { return webhook.New("", nil) },
	"whatsapp": func() notifier.Notifier { return whatsapp.New("", "", "") },
}

// App is the main application orchestrator. It owns the store and every
// service built on it.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	store     docstore.Store
	Feed      *docstore.Feed
	Metrics   *metrics.Registry
	Notifiers *notifier.Registry

	Pairs       *pair.Repository
	Preferences *preference.Repository
	Calendar    *storecal.Repository

	Ingest   *ingest.Service
	Admin    *admin.Service
	Screener *screener.Service
	Hub      *screener.Hub
	Panels   *calendar.Service
}

// New wires the application from cfg. The caller must Close the app.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		Feed:      docstore.NewFeed(store, logger.Named("feed")),
		Metrics:   metrics.NewRegistry(),
		Notifiers: notifier.NewRegistry(),
	}

	if err := a.initNotifiers(); err != nil {
		a.Close()
		return nil, err
	}

	policy, err := alert.NewPolicy(cfg.Alerts.Rules)
	if err != nil {
		a.Close()
		return nil, err
	}

	archiver, err := OpenArchive(cfg.Archive)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Pairs = pair.NewRepository(a.Feed)
	a.Preferences = preference.NewRepository(a.Feed)
	a.Calendar = storecal.NewRepository(a.Feed)

	a.Ingest = ingest.NewService(a.Pairs, policy, a.Notifiers, ingest.Options{
		Consistency: ingest.Consistency(cfg.Ingest.Consistency),
		MaxAttempts: cfg.Ingest.MaxAttempts,
		Logger:      logger.Named("ingest"),
		Metrics:     a.Metrics,
	})
	a.Admin = admin.NewService(a.Feed, archiver, logger.Named("admin"), a.Metrics)
	a.Screener = screener.NewService(a.Pairs, a.Preferences, logger.Named("screener"))
	a.Hub = screener.NewHub(a.Feed, a.Screener, logger.Named("hub"), a.Metrics)
	a.Panels = calendar.NewService(a.Calendar, nil)

	logger.Info("application wired",
		zap.String("storage", cfg.Storage.Type),
		zap.String("archive", cfg.Archive.Type),
		zap.String("consistency", cfg.Ingest.Consistency),
		zap.Strings("notifiers", a.Notifiers.Names()),
		zap.Int("alert_rules", len(policy.Rules())),
	)
	return a, nil
}

func (a *App) initNotifiers() error {
	for _, name := range a.cfg.EnabledNotifiers() {
		factory, ok := notifierFactories[name]
		if !ok {
			return fmt.Errorf("unknown notifier %s", name)
		}
		n := factory()
		if err := n.Init(notifier.Config{Type: name, Params: a.cfg.Notifiers[name].Params}); err != nil {
			return fmt.Errorf("init notifier %s: %w", name, err)
		}
		if err := a.Notifiers.Register(n); err != nil {
			return err
		}
	}
	return nil
}

// Server builds the HTTP server over the app's services.
func (a *App) Server() (*api.Server, error) {
	return api.NewServer(api.Config{
		Host:   a.cfg.Server.Host,
		Port:   a.cfg.Server.Port,
		APIKey: a.cfg.Server.APIKey,
	}, api.Dependencies{
		Ingest:    a.Ingest,
		Admin:     a.Admin,
		Seeder:    a.Ingest,
		Pairs:     a.Pairs,
		Grid:      a.Screener,
		Live:      a.Hub,
		Bookmarks: a.Preferences,
		Calendar:  a.Calendar,
		Panels:    a.Panels,
		Metrics:   a.Metrics,
	}, a.logger.Named("api"))
}

// Close disconnects live clients, flushes notifiers that hold connections
// and closes the store.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}

	var errs []error
	for _, name := range a.Notifiers.Names() {
		n, _ := a.Notifiers.Get(name)
		if c, ok := n.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close notifier %s: %w", name, err))
			}
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// OpenStore opens the configured document store.
func OpenStore(cfg config.StorageConfig) (docstore.Store, error) {
	switch cfg.Type {
	case "memory":
		return docstore.NewMemoryStore(), nil
	case "buntdb":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		return docstore.OpenBunt(cfg.Path)
	case "redis":
		return docstore.NewRedisStore(docstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// OpenArchive builds the snapshot archiver. It returns nil when archiving
// is disabled.
func OpenArchive(cfg config.ArchiveConfig) (*archive.Archiver, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "localfs":
		fs, err := archive.NewLocalFS(cfg.Path)
		if err != nil {
			return nil, err
		}
		return archive.NewArchiver(fs), nil
	case "s3":
		return archive.NewArchiver(archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})), nil
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}
