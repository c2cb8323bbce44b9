// Package cli is the rider command line: browse routes, quote fares, request a
// ride and follow it.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/triptap-rides/internal/api"
	"github.com/ukydev/triptap-rides/internal/auth"
	"github.com/ukydev/triptap-rides/internal/config"
	"github.com/ukydev/triptap-rides/internal/db"
	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/i18n"
	"github.com/ukydev/triptap-rides/internal/notify"
	"github.com/ukydev/triptap-rides/internal/tracker"
)

// App holds the dependencies shared by every command. Fields left nil are built
// from Config before the command runs.
type App struct {
	Config config.Config
	Out    io.Writer
	Log    *logrus.Logger

	Client     *api.Client
	Store      handoff.Store
	Translator i18n.Translator
	Observers  []tracker.Observer

	closers []func(context.Context) error
}

// Execute runs the rider CLI with configuration from the environment.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &App{Config: cfg, Out: os.Stdout, Log: logrus.StandardLogger()}
	err = app.Run(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// Run executes one command line and releases the store and broker connections
// afterwards, whether the command failed or not.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.close(context.Background())
	cmd := NewRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	var lang string

	root := &cobra.Command{
		Use:          "triptap",
		Short:        "Request and track TripTap rides",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if lang != "" {
				app.Config.Lang = lang
			}
			return app.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&lang, "lang", "", "Message language (es, en)")
	root.PersistentFlags().StringVar(&app.Config.API.BaseURL, "api", app.Config.API.BaseURL, "TripTap API base URL")

	root.AddCommand(
		newRoutesCmd(app),
		newFareCmd(app),
		newRequestCmd(app),
		newTrackCmd(app),
	)
	return root
}

func (a *App) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Log == nil {
		a.Log = logrus.StandardLogger()
	}
	configureLogger(a.Log, a.Config.Log.Level, a.Config.Log.Format)

	if a.Translator == nil {
		a.Translator = i18n.New(a.Config.Lang)
	}

	if a.Client == nil {
		tokens := auth.NewService(a.Config.API.Token, a.Config.API.JWTSecret, a.Config.API.ClientID, 0)
		a.Client = api.NewClient(a.Config.API.BaseURL,
			api.WithTimeout(a.Config.API.Timeout),
			api.WithTokenSource(tokens),
			api.WithLogger(a.Log),
		)
	}

	if a.Store == nil {
		store, err := openStore(ctx, a.Config, a.Log)
		if err != nil {
			return err
		}
		a.Store = store
		if c, ok := store.(db.HandoffCollection); ok {
			a.closers = append(a.closers, c.Close)
		}
	}

	if a.Config.MQTT.Broker != "" && a.Observers == nil {
		client, err := notify.Connect(a.Config.MQTT.Broker, a.Config.API.ClientID)
		if err != nil {
			a.Log.WithError(err).WithField("broker", a.Config.MQTT.Broker).Warn("MQTT disabled")
		} else {
			a.Observers = append(a.Observers, notify.NewMQTTPublisher(client, a.Config.MQTT.TopicPrefix, a.Log))
			a.closers = append(a.closers, func(context.Context) error {
				client.Disconnect(250)
				return nil
			})
		}
	}
	return nil
}

func (a *App) close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.Log.WithError(err).Warn("Failed to close resource")
		}
	}
	a.closers = nil
}

// openStore returns the configured hand-off backend. Mongo and Redis backends
// are db.HandoffCollection values and must be closed.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (handoff.Store, error) {
	switch cfg.Handoff.Backend {
	case config.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("handoff store: %w", err)
		}
		s := db.NewMongoHandoffStore(client, cfg.Mongo.Database, cfg.Handoff.TTL)
		if err := s.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Handoff TTL index unavailable, relying on eviction at save")
		}
		return s, nil
	case config.BackendRedis:
		return db.NewRedisHandoffStore(db.NewRedis(cfg.Redis.Addr), cfg.Handoff.TTL), nil
	default:
		return handoff.NewMemoryStore(cfg.Handoff.TTL), nil
	}
}

func configureLogger(l *logrus.Logger, level, format string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
}
