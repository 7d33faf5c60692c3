package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/servicesaver/servicesaver/internal/auth"
	"github.com/servicesaver/servicesaver/internal/backend"
	"github.com/servicesaver/servicesaver/internal/cache"
	"github.com/servicesaver/servicesaver/internal/cloud"
	"github.com/servicesaver/servicesaver/internal/config"
	"github.com/servicesaver/servicesaver/internal/log"
	"github.com/servicesaver/servicesaver/internal/session"
)

const credentialsFile = "credentials.json"

var errNotSignedIn = errors.New("not signed in; run `servicesaver login`")

// env is what every command needs once the config is loaded.
type env struct {
	home   string
	cfg    *config.Config
	logger *zap.Logger
	auth   *auth.Client
	cache  session.Cache
}

func loadEnv() (*env, error) {
	home, err := config.Home(homeFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(home, os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logger, err := log.NewLogger(home, level)
	if err != nil {
		return nil, err
	}

	c, err := openCache(home, cfg)
	if err != nil {
		// Snapshots are an optimisation; run without them.
		logger.Warn("cache unavailable", zap.String("driver", cfg.Cache.Driver), zap.Error(err))
		c = nil
	}

	return &env{
		home:   home,
		cfg:    cfg,
		logger: logger,
		auth: auth.NewClient(cfg.Firebase.APIKey,
			auth.WithEndpoints(cfg.Firebase.AuthURL, cfg.Firebase.TokenURL),
			auth.WithCredentialsFile(filepath.Join(home, credentialsFile)),
			auth.WithLogger(logger)),
		cache: c,
	}, nil
}

func openCache(home string, cfg *config.Config) (session.Cache, error) {
	driver := cache.Driver(cfg.Cache.Driver)
	opts := []cache.Option{cache.WithPath(cfg.CachePath(home))}
	if driver == cache.DriverRedis {
		opts = append(opts, cache.WithRedisClient(redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})))
	}
	return cache.New(driver, opts...)
}

func (e *env) close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Warn("closing cache", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

// restore returns the stored sign-in for the one-shot commands.
func (e *env) restore(ctx context.Context) (*auth.Credentials, error) {
	creds, err := e.auth.Restore(ctx)
	if errors.Is(err, auth.ErrNotSignedIn) {
		return nil, errNotSignedIn
	}
	if err != nil {
		return nil, fmt.Errorf("restoring sign-in: %s", auth.Message(err))
	}
	return creds, nil
}

// userSession is a session client that owns its Firestore connection. The
// connection authorises as the user signed in when it was opened, so it
// is closed with the client.
type userSession struct {
	*session.Client
	services *cloud.Services
}

// Close stops the listeners and releases the connection.
func (s *userSession) Close() error {
	err := s.Client.Close()
	if cerr := s.services.Close(); err == nil {
		err = cerr
	}
	return err
}

func (e *env) connect(ctx context.Context, uid string) (*userSession, error) {
	svc, err := cloud.Connect(ctx, cloud.Options{
		ProjectID:       e.cfg.Firebase.ProjectID,
		CredentialsFile: e.cfg.Firebase.CredentialsFile,
		TokenSource:     e.auth,
	}, e.logger)
	if err != nil {
		return nil, err
	}

	reinit := backend.New(e.cfg.Backend.BaseURL,
		backend.WithTokenSource(e.auth),
		backend.WithTimeout(e.cfg.Backend.Timeout()),
		backend.WithLogger(e.logger))

	sc := e.cfg.Sync
	client, err := session.NewClient(uid, session.NewFirestoreStore(svc.Firestore),
		session.WithReinitializer(reinit),
		session.WithCache(e.cache),
		session.WithLogger(e.logger.With(zap.String("uid", uid))),
		session.WithReconnect(rate.Limit(sc.ReconnectPerSecond), sc.ReconnectBurst),
		session.WithBreakerThreshold(sc.BreakerThreshold))
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	return &userSession{Client: client, services: svc}, nil
}

// withSession restores the sign-in, opens the user's session and runs fn.
func withSession(ctx context.Context, fn func(*env, *userSession) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	creds, err := e.restore(ctx)
	if err != nil {
		return err
	}
	s, err := e.connect(ctx, creds.UserID)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(e, s)
}
