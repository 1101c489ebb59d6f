package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sabia-bot/sabia/engine"
	"github.com/sabia-bot/sabia/engine/metrics"
	"github.com/sabia-bot/sabia/internal/profile"
	"github.com/sabia-bot/sabia/internal/version"
	"github.com/sabia-bot/sabia/plugin/telegram"
	"github.com/sabia-bot/sabia/server"
	"github.com/sabia-bot/sabia/store"
	"github.com/sabia-bot/sabia/store/db"
	"github.com/sabia-bot/sabia/wikipedia"
)

var rootCmd = &cobra.Command{
	Use:   "sabia",
	Short: `A self-learning conversational responder for Telegram. Teach it patterns, give feedback, watch it improve.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Try to load .env from the current directory (ignore error if the
		// file doesn't exist).
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance, err := store.New(dbDriver, instanceProfile)
		if err != nil {
			slog.Error("failed to create store", "error", err)
			return
		}
		defer storeInstance.Close()
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return
		}

		collector := metrics.NewCollector(metrics.DefaultConfig())
		wikiClient := wikipedia.NewClient(
			wikipedia.WithBaseURL(instanceProfile.WikipediaBaseURL),
			wikipedia.WithTimeout(time.Duration(instanceProfile.FallbackTimeout)*time.Second),
		)
		eng := engine.New(storeInstance,
			engine.WithFallback(wikiClient),
			engine.WithMetrics(collector),
		)

		s := server.NewServer(instanceProfile, eng, collector)

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM. The default signal
		// sent by the `kill` command is SIGTERM, which is taken as the
		// graceful shutdown signal by most process managers.
		signal.Notify(c, terminationSignals...)
		go func() {
			<-c
			cancel()
		}()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := s.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			s.Shutdown(context.Background())
			return nil
		})

		if instanceProfile.IsTelegramEnabled() {
			bot, err := telegram.NewBot(instanceProfile.TelegramToken, eng)
			if err != nil {
				slog.Error("failed to create telegram bot", "error", err)
				cancel()
				return
			}
			g.Go(func() error {
				if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		} else {
			slog.Warn("telegram token not configured, running HTTP API only")
		}

		printGreetings(instanceProfile)

		if err := g.Wait(); err != nil {
			slog.Error("shutdown with error", "error", err)
		}
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28284)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28284, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres, none)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("sabia")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Sabiá %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)

	if len(profile.Addr) == 0 {
		fmt.Printf("HTTP API running on port %d\n", profile.Port)
	} else {
		fmt.Printf("HTTP API running on %s:%d\n", profile.Addr, profile.Port)
	}
	if profile.IsTelegramEnabled() {
		fmt.Println("Telegram adapter enabled")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
