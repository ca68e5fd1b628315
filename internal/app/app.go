// Package app wires the onboarding client: the session backend chosen by
// configuration, the remote client and the flows built on top of them.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/developia-II/vendora-onboarding/internal/adapters/repository/mongodb"
	"github.com/developia-II/vendora-onboarding/internal/adapters/repository/redis"
	"github.com/developia-II/vendora-onboarding/internal/config"
	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/navigation"
	"github.com/developia-II/vendora-onboarding/internal/otp"
	"github.com/developia-II/vendora-onboarding/internal/registration"
	"github.com/developia-II/vendora-onboarding/internal/remote"
	"github.com/developia-II/vendora-onboarding/internal/session"
	"github.com/developia-II/vendora-onboarding/internal/vendorsetup"
	"github.com/sirupsen/logrus"
)

type closer func(context.Context) error

// App holds the long-lived collaborators of one client process.
type App struct {
	Config       *config.Config
	Client       *remote.Client
	Store        domain.SessionStore
	Sessions     *session.Manager
	Registration *registration.Service
	Cache        *vendorsetup.ApplicationCache

	nav     navigation.Navigator
	notify  navigation.Notifier
	closers []closer
}

// New opens the session backend and hydrates the session from it.
// nav and notify default to the logging implementations.
func New(ctx context.Context, cfg *config.Config, nav navigation.Navigator, notify navigation.Notifier) (*App, error) {
	if nav == nil {
		nav = navigation.LogNavigator{}
	}
	if notify == nil {
		notify = navigation.LogNotifier{}
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	sessions := session.NewManager(store, client)
	if err := sessions.Hydrate(ctx); err != nil {
		if closeStore != nil {
			_ = closeStore(ctx)
		}
		return nil, fmt.Errorf("hydrate session: %w", err)
	}

	reg := registration.NewService(client, sessions, nav, notify)
	reg.SettleDelay = cfg.SessionSettle

	a := &App{
		Config:       cfg,
		Client:       client,
		Store:        store,
		Sessions:     sessions,
		Registration: reg,
		Cache:        vendorsetup.NewApplicationCache(store),
		nav:          nav,
		notify:       notify,
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	return a, nil
}

// OpenStore builds the session store selected by SESSION_BACKEND. The
// returned closer is nil for backends without a connection.
func OpenStore(ctx context.Context, cfg *config.Config) (domain.SessionStore, closer, error) {
	log := logrus.WithFields(logrus.Fields{"component": "app", "backend": cfg.SessionBackend})
	switch cfg.SessionBackend {
	case config.BackendMemory:
		log.Warn("session is kept in memory and lost on exit")
		return session.NewMemoryStore(), nil, nil

	case config.BackendFile:
		store, err := session.OpenFileStore(cfg.SessionFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open session file: %w", err)
		}
		return store, nil, nil

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		prefix := cfg.RedisPrefix + cfg.SessionNamespace + ":"
		return redis.NewSessionStore(client, prefix), func(context.Context) error { return client.Close() }, nil

	case config.BackendMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		store := mongodb.NewSessionStore(client.Database(cfg.MongoDatabase), cfg.SessionNamespace)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}

// NewOTPFlow starts a verification screen for challenge.
func (a *App) NewOTPFlow(challenge domain.OTPChallenge) *otp.Flow {
	return otp.NewFlow(a.Client, a.Sessions, a.nav, a.notify, challenge,
		otp.WithResendCooldown(a.Config.OTPResendCooldown))
}

// NewWizard starts the vendor setup wizard. picker may be nil when files
// are attached by reference only.
func (a *App) NewWizard(picker vendorsetup.FilePicker) *vendorsetup.Wizard {
	return vendorsetup.NewWizard(vendorsetup.Deps{
		Drafts:   vendorsetup.NewStoreDraftRepository(a.Store),
		Sessions: a.Sessions,
		API:      a.Client,
		Cache:    a.Cache,
		Picker:   picker,
		Files:    vendorsetup.LocalFiles{},
		Nav:      a.nav,
		Notify:   a.notify,
	})
}

// Close releases the session backend connection.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}
