package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/adapters/backend"
	boltadapter "github.com/atvirokodosprendimai/portafolio/internal/adapters/db/bolt"
	sqliteadapter "github.com/atvirokodosprendimai/portafolio/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/portafolio/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/portafolio/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/config"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/i18n"
	"github.com/atvirokodosprendimai/portafolio/internal/logging"
	"github.com/atvirokodosprendimai/portafolio/internal/registry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

const sessionPurgeInterval = time.Hour

func main() {
	root := &cli.Command{
		Name:    "portafolio",
		Usage:   "Project portfolio web front end and admin CLI",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file (default ./portafolio.yaml when present)"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before reading the environment"},
		},
		Commands: []*cli.Command{
			serverCommand(),
			entitiesCommand(),
			adminCommand(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Command) (config.Config, error) {
	return config.Load(c.String("config"), c.String("env-file"))
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the HTTP front end and the admin socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "backend-url", Usage: "base URL of the backend API"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path"},
			&cli.StringFlag{Name: "session-store", Usage: "sqlite or bolt"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("addr") {
				cfg.Server.Addr = c.String("addr")
			}
			if c.IsSet("rpc-socket") {
				cfg.Server.RPCSocket = c.String("rpc-socket")
			}
			if c.IsSet("backend-url") {
				cfg.Backend.URL = c.String("backend-url")
			}
			if c.IsSet("db-path") {
				cfg.Database.Path = c.String("db-path")
			}
			if c.IsSet("session-store") {
				cfg.Session.Store = c.String("session-store")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Security.SecretKey == "" {
		cfg.Security.SecretKey, err = randomKey()
		if err != nil {
			return err
		}
		logger.Warn("security.secret_key is not set; using a random key for this run")
	}

	db, err := sqliteadapter.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqliteadapter.Close(db); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}()
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}
	audit := sqliteadapter.NewAuditRepository(db)

	sessions, closeSessions, err := openSessionStore(cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	reg, err := registry.Load()
	if err != nil {
		return err
	}
	messages, err := i18n.New(cfg.UI.Language)
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	catalog := application.NewCatalogService(client, reg, audit, messages, logger)
	auth := application.NewAuthService(client, sessions, audit, cfg.Session.TTL, logger)

	router := httpadapter.NewRouter(catalog, auth, httpadapter.Options{
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
		SecretKey:    cfg.Security.SecretKey,
		Lang:         messages.Lang(),
		Version:      version,
		BackendURL:   client.BaseURL(),
	}, logger)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router, ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout}
	rpcSrv, err := rpcadapter.Start(cfg.Server.RPCSocket, catalog, auth, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = rpcSrv.Close()
	}()
	logger.Info("json-rpc listening", zap.String("socket", cfg.Server.RPCSocket))

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, auth, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("backend", client.BaseURL()),
			zap.Int("entities", len(reg.All())),
		)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openSessionStore(cfg config.Config, db *gorm.DB) (domain.SessionStore, func(), error) {
	if cfg.Session.Store == "bolt" {
		store, err := boltadapter.Open(cfg.Session.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return sqliteadapter.NewSessionRepository(db), func() {}, nil
}

func purgeSessions(ctx context.Context, auth *application.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func entitiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "entities",
		Usage: "List the entities served by the front end",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(_ context.Context, c *cli.Command) error {
			reg, err := registry.Load()
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(reg.All())
			}
			printRegistry(reg.All())
			return nil
		},
	}
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Talk to a running server over its admin socket",
		Commands: []*cli.Command{
			{
				Name:  "ping",
				Usage: "List every backend endpoint once and report the outcome",
				Flags: []cli.Flag{socketFlag(), jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					client, err := adminClient(c)
					if err != nil {
						return err
					}
					var out []application.PingResult
					if err := doBackendPing(ctx, client, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printPing(out)
					return nil
				},
			},
			{
				Name:  "records",
				Usage: "List the records of one entity",
				Flags: []cli.Flag{
					socketFlag(),
					jsonFlag(),
					&cli.StringFlag{Name: "entity", Required: true},
					&cli.StringFlag{Name: "q", Usage: "free-text filter"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					client, err := adminClient(c)
					if err != nil {
						return err
					}
					var out []map[string]any
					if err := doRecordsList(ctx, client, c.String("entity"), c.String("q"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRecords(out)
					return nil
				},
			},
			{
				Name:  "audit",
				Usage: "Show the most recent audit entries",
				Flags: []cli.Flag{socketFlag(), jsonFlag(), &cli.IntFlag{Name: "limit", Value: 50}},
				Action: func(ctx context.Context, c *cli.Command) error {
					client, err := adminClient(c)
					if err != nil {
						return err
					}
					var out []domain.AuditEntry
					if err := doAuditList(ctx, client, c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAuditEntries(out)
					return nil
				},
			},
			{
				Name:  "purge-sessions",
				Usage: "Delete expired sessions now",
				Flags: []cli.Flag{socketFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					client, err := adminClient(c)
					if err != nil {
						return err
					}
					deleted, err := doPurgeSessions(ctx, client)
					if err != nil {
						return err
					}
					fmt.Printf("deleted %d expired sessions\n", deleted)
					return nil
				},
			},
		},
	}
}

func socketFlag() cli.Flag {
	return &cli.StringFlag{Name: "socket", Usage: "admin socket path (default server.rpc_socket)"}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func adminClient(c *cli.Command) (*rpcClient, error) {
	if c.IsSet("socket") {
		return newRPCClient(c.String("socket")), nil
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return newRPCClient(cfg.Server.RPCSocket), nil
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
