package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coalwatch/spa/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:          "coalwatch",
		Short:        "Serve the coalwatch single-page application",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./coalwatch.yaml if present)")
	flags.String("addr", "", "listen address")
	flags.String("variant", "", "route table variant (full, minimal, partial)")
	flags.String("mode", "", "router mode (history, hash)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	bindFlag(v, "server.addr", root, "addr")
	bindFlag(v, "routes.variant", root, "variant")
	bindFlag(v, "routes.mode", root, "mode")
	bindFlag(v, "log.level", root, "log-level")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), v, cfgFile)
			},
		},
		&cobra.Command{
			Use:   "routes",
			Short: "Print the active route table as YAML",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(v, cfgFile)
				if err != nil {
					return err
				}
				return printRoutes(cmd, cfg)
			},
		},
	)

	return root
}

// bindFlag binds a flag to a config key. Flags only override the key when
// they are set explicitly.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

func runServe(ctx context.Context, v *viper.Viper, cfgFile string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	if v.ConfigFileUsed() == "" {
		logger.Info("No config file found, using defaults and environment")
	}

	app, err := bootstrap(cfg, logger)
	if err != nil {
		logger.Error("Bootstrap application", "error", err)
		return err
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	}
	mux.Handle("/", app)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: LoggerMiddleware(mux, logger),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		logger.Error("HTTP server error", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func LoggerMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("HTTP request", "method", r.Method, "url", r.URL.Redacted())
		next.ServeHTTP(w, r)
	})
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

type routesOutput struct {
	Variant string       `yaml:"variant"`
	Mode    string       `yaml:"mode"`
	Routes  []routeEntry `yaml:"routes"`
}

type routeEntry struct {
	Path      string `yaml:"path"`
	Component string `yaml:"component"`
	File      string `yaml:"file"`
}

func printRoutes(cmd *cobra.Command, cfg *config.Config) error {
	rt, err := newRouter(cfg)
	if err != nil {
		return err
	}

	out := routesOutput{Variant: cfg.Routes.Variant, Mode: rt.Mode().String()}
	for _, r := range rt.Table().Routes() {
		out.Routes = append(out.Routes, routeEntry{
			Path:      r.Path,
			Component: r.Component,
			File:      componentFile(r.Component),
		})
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode routes: %w", err)
	}
	return enc.Close()
}
