package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teakit-dev/teakit"
	"github.com/teakit-dev/teakit/pkg/middleware"
	"github.com/teakit-dev/teakit/pkg/observer"
	"github.com/teakit-dev/teakit/pkg/remote"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "teakit-demo",
		Short: "Reactive observer demo for the teakit extension layer",
		Long: `teakit-demo runs a small terminal UI wired entirely through the
observer dispatch engine: a counter widget, a mirror widget that follows it,
and an event log driven by published events. No widget references another
directly; every arrow in the UI is an observer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.Flags().String("metrics-addr", "", "listen address for the /metrics and /ws delegation endpoint (empty disables)")
	rootCmd.Flags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd())

	v := viper.New()
	v.SetEnvPrefix("TEAKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(rootCmd.Flags())
	rootCmd.SetContext(withConfig(rootCmd.Context(), v))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// versionCmd prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("teakit-demo %s (%s, teakit %s)\n", version, commit, teakit.Version)
		},
	}
}

// run wires the manager, optional delegation endpoint, and the TUI.
func run(cmd *cobra.Command, _ []string) error {
	v := configFrom(cmd.Context())

	logger := newLogger(v.GetString("log-level"))
	mgr := observer.NewManager(observer.WithLogger(logger))
	mgr.Use(middleware.Prometheus())

	if addr := v.GetString("metrics-addr"); addr != "" {
		srv := remote.NewServer(mgr.Local(), remote.WithServerLogger(logger))
		go func() {
			if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
				logger.Error("metrics endpoint failed", "addr", addr, "error", err)
			}
		}()
	}

	app := newApp(mgr)
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

// newLogger builds a text slog handler at the configured level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
