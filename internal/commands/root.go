// Package commands implements the usage-report command line tool.
//
// Purpose:
//
//	Run the dashboard's analyses offline: write the aircraft workbook and the
//	hardware CSV, and print starting locations, scenery gateway series and the
//	release catalogue as tables.
//
// Dependencies:
//   - github.com/spf13/cobra: command tree and flags
//   - internal/ga, internal/stats, internal/reports: the analyses themselves
//   - internal/output: table and JSON rendering
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/cache"
	"github.com/X-Plane/dashboard/internal/config"
	"github.com/X-Plane/dashboard/internal/dashboard"
	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/logging"
	"github.com/X-Plane/dashboard/internal/output"
)

// Deps are the tool's external dependencies. Nil fields are built from the
// environment on first use.
type Deps struct {
	Out     io.Writer
	Err     io.Writer
	Config  *config.Config
	Logger  *zap.Logger
	Querier ga.Querier
	Gateway dashboard.GatewaySource
	Now     func() time.Time
}

type app struct {
	deps Deps

	version string
	group   string
	format  string

	store cache.Store
}

// NewRootCommand builds the usage-report command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Err == nil {
		deps.Err = os.Stderr
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:   "usage-report",
		Short: "Offline X-Plane usage analyses",
		Long: `usage-report runs the usage dashboard's analyses from the command line.
Reports are written to files; tables are printed to stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.version, "version", "", "X-Plane version: 10, 11 or a release name such as 11.20r4 (default GA_APP_VERSION)")
	root.PersistentFlags().StringVar(&a.group, "group", "", "user group: all, paid or demo (default GA_USER_GROUP)")
	root.PersistentFlags().StringVar(&a.format, "format", output.FormatTable, "output format: table or json")

	root.AddCommand(a.aircraftCommand())
	root.AddCommand(a.hardwareCommand())
	root.AddCommand(a.locationsCommand())
	root.AddCommand(a.gatewayCommand())
	root.AddCommand(a.versionsCommand())
	root.AddCommand(a.totalsCommand())
	return root
}

func (a *app) config() (*config.Config, error) {
	if a.deps.Config != nil {
		return a.deps.Config, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, NewUsageError("invalid configuration", err.Error())
	}
	a.deps.Config = cfg
	return cfg, nil
}

func (a *app) logger() *zap.Logger {
	if a.deps.Logger != nil {
		return a.deps.Logger
	}
	level := "warn"
	if a.deps.Config != nil && strings.EqualFold(a.deps.Config.LogLevel, "debug") {
		level = "debug"
	}
	l, err := logging.New(
		logging.WithService("usage-report"),
		logging.WithLevel(level),
		logging.WithOutput("stderr"),
		logging.WithConsole(),
	)
	a.deps.Logger = orNop(a.deps.Err, l, err)
	return a.deps.Logger
}

// orNop falls back to a no-op logger, warning once on w when the real one
// could not be built.
func orNop(w io.Writer, l *zap.Logger, err error) *zap.Logger {
	if err == nil {
		return l
	}
	fmt.Fprintf(w, "usage-report: logging disabled: %v\n", err)
	return zap.NewNop()
}

func (a *app) cache(cfg *config.Config) (cache.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	var client *redis.Client
	if cfg.CacheBackendName() == config.CacheRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, NewUsageError("invalid REDIS_URL", err.Error())
		}
		client = redis.NewClient(opts)
	}
	store, err := cache.New(cache.Config{
		Backend:     cfg.CacheBackendName(),
		Dir:         cfg.CacheDir,
		TTL:         cfg.CacheTTL,
		MaxEntries:  cfg.CacheMaxEntries,
		RedisClient: client,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) querier(ctx context.Context) (ga.Querier, error) {
	if a.deps.Querier != nil {
		return a.deps.Querier, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if cfg.GACredentials == "" {
		return nil, NewUsageError("GA_CREDENTIALS is not set", "Export the Google service account JSON in GA_CREDENTIALS.")
	}
	property, err := ga.ParseProperty(cfg.GAProperty)
	if err != nil {
		return nil, NewUsageError("invalid GA_PROPERTY", err.Error())
	}
	store, err := a.cache(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := ga.NewService(ctx, ga.ServiceConfig{
		Credentials: cfg.GACredentials,
		AccountID:   cfg.GAAccountID,
		Property:    property,
		Cache:       store,
		Logger:      a.logger(),
	})
	if err != nil {
		return nil, NewServiceUnavailableError("Google Analytics", err)
	}
	a.deps.Querier = svc
	return svc, nil
}

func (a *app) gateway() (dashboard.GatewaySource, error) {
	if a.deps.Gateway != nil {
		return a.deps.Gateway, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	store, err := a.cache(cfg)
	if err != nil {
		return nil, err
	}
	a.deps.Gateway = gateway.NewClient(gateway.Config{
		URL:     cfg.GatewayStatsURL,
		Timeout: cfg.GatewayTimeout,
		Cache:   store,
		Logger:  a.logger(),
	})
	return a.deps.Gateway, nil
}

// selection resolves --version and --group against the configuration.
func (a *app) selection() (ga.Version, ga.UserGroup, error) {
	cfg, err := a.config()
	if err != nil {
		return ga.Version{}, "", err
	}

	name := a.version
	if name == "" {
		name = strconv.Itoa(cfg.GAAppVersion)
	}
	version, err := ga.VersionByName(strings.TrimSpace(name))
	if err != nil {
		return ga.Version{}, "", NewUsageError("unknown --version", "Use 10, 11 or a release listed by `usage-report versions`.")
	}

	groupName := a.group
	if groupName == "" {
		groupName = cfg.GAUserGroup
	}
	group, err := ga.ParseUserGroup(groupName)
	if err != nil {
		return ga.Version{}, "", NewUsageError("unknown --group", "Use all, paid or demo.")
	}
	return version, group, nil
}

func (a *app) queries(ctx context.Context) (ga.VersionQueries, ga.UserGroup, error) {
	version, group, err := a.selection()
	if err != nil {
		return ga.VersionQueries{}, "", err
	}
	q, err := a.querier(ctx)
	if err != nil {
		return ga.VersionQueries{}, "", err
	}
	return ga.NewVersionQueries(q, version, a.deps.Config.GAStrictRetention), group, nil
}

func (a *app) write(tbl output.Table) error {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return NewUsageError("invalid --format", err.Error())
	}
	return output.Write(a.deps.Out, format, tbl)
}
