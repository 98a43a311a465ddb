package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/shohag/hookpad/internal/api"
	"github.com/shohag/hookpad/internal/compose"
	"github.com/shohag/hookpad/internal/config"
	"github.com/shohag/hookpad/internal/settings"
	"github.com/shohag/hookpad/internal/storage"
	"github.com/shohag/hookpad/internal/surface"
	"github.com/shohag/hookpad/internal/webhook"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "hookpad",
		Short:         "hookpad: post quick messages to Discord webhooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(sendCmd(&configPath))
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(panelCmd(&configPath))
	rootCmd.AddCommand(openCmd(&configPath))
	rootCmd.AddCommand(webhooksCmd(&configPath))
	rootCmd.AddCommand(legacyCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func composeFlags(cmd *cobra.Command) {
	cmd.Flags().String("min", "0", "minutes until the timestamp (0-999)")
	cmd.Flags().String("sec", "0", "seconds until the timestamp (0-59)")
	cmd.Flags().Bool("ts", false, "append a relative Discord timestamp")
}

func composeState(cmd *cobra.Command, args []string) compose.State {
	minutes, _ := cmd.Flags().GetString("min")
	seconds, _ := cmd.Flags().GetString("sec")
	ts, _ := cmd.Flags().GetBool("ts")
	return compose.State{
		Text:             strings.Join(args, " "),
		Minutes:          minutes,
		Seconds:          seconds,
		IncludeTimestamp: ts,
	}
}

func sendCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a message to the legacy webhook (or the selected slot with --slot)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			resolver := webhook.NewResolver(app.store)
			target := resolver.LegacyTarget()
			if slot, _ := cmd.Flags().GetBool("slot"); slot {
				target = resolver.SelectedTarget()
			}

			s := surface.New("send", compose.NewCompiler(nil), app.dispatcher, target, app.log)
			defer s.Wait()

			out := s.SendSync(cmd.Context(), composeState(cmd, args))
			fmt.Println(out.Status)
			if out.Err != nil {
				return fmt.Errorf("send failed: %w", out.Err)
			}
			return nil
		},
	}
	composeFlags(cmd)
	cmd.Flags().Bool("slot", false, "send to the selected webhook slot instead of the legacy webhook")
	return cmd
}

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [text...]",
		Short: "Print the message that would be sent",
		Run: func(cmd *cobra.Command, args []string) {
			res := compose.NewCompiler(nil).Compile(composeState(cmd, args))
			fmt.Println(res.Preview)
		},
	}
	composeFlags(cmd)
	return cmd
}

func panelCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "panel",
		Short: "Serve the persistent compose panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := settings.NewService(app.store, app.log)
			target := webhook.NewResolver(app.store).SelectedTarget()
			panel := surface.New("panel", compose.NewCompiler(nil), app.dispatcher, target, app.log)

			server := api.NewServer(app.cfg.Server, app.store, svc, panel, app.log)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var wg conc.WaitGroup
			if sq, ok := app.store.(*storage.SQLiteStore); ok && app.cfg.Storage.Watch {
				w := storage.NewWatcher(sq, sq.Path(), app.cfg.Storage.WatchDebounce, app.log)
				wg.Go(func() {
					if err := w.Run(ctx); err != nil {
						app.log.Error().Err(err).Msg("config watcher stopped")
					}
				})
			}

			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					app.log.Fatal().Err(err).Msg("panel server error")
				}
			}()

			app.log.Info().
				Str("version", version).
				Str("url", "http://"+server.Addr()+"/").
				Str("storage", app.cfg.Storage.Driver).
				Msg("hookpad panel is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			app.log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				app.log.Error().Err(err).Msg("panel shutdown error")
			}
			cancel()
			wg.Wait()

			app.log.Info().Msg("hookpad panel stopped")
			return nil
		},
	}
}

func openCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Print the panel URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Printf("http://%s:%d/\n", cfg.Server.Host, cfg.Server.Port)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hookpad v%s\n", version)
		},
	}
}

type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      storage.Store
	dispatcher *webhook.Dispatcher
}

func setup(configPath string) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.Logging)

	store, err := setupStorage(cfg.Storage, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	userAgent := cfg.Delivery.UserAgent
	if userAgent != "" && !strings.Contains(userAgent, "/") {
		userAgent += "/" + version
	}
	sender := webhook.NewSender(cfg.Delivery.Timeout, userAgent)

	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		dispatcher: webhook.NewDispatcher(sender, log),
	}, func() { store.Close() }, nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func setupStorage(cfg config.StorageConfig, log zerolog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o700); err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.SQLite.Path).Msg("using SQLite storage")
		return storage.NewSQLite(cfg.SQLite.Path, log)
	case "memory":
		log.Warn().Msg("using in-memory storage, settings will not persist")
		return storage.NewMemory(log), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
