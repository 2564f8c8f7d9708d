package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/config"
	"github.com/adam936936/bagua-ai/internal/notify"
	"github.com/adam936936/bagua-ai/internal/storage"
	"github.com/adam936936/bagua-ai/internal/store"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "fortune-cli",
		Short: "Bazi fortune-telling client",
		Long:  `A client for the fortune-telling backend: horoscope calculation, name recommendation, history and VIP membership.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return todayCmd.RunE(cmd, args)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/fortune-cli/config.yaml)")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON")

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(vipCmd)
}

// app bundles the wired client and stores for one command invocation.
type app struct {
	cfg     *config.Config
	session *store.Session
	fortune *store.Fortune
	vip     *store.Vip
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Settings.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	st, err := storage.OpenFile(cfg.StatePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}

	notifier := notify.Func(PrintToast)
	loading := notify.NewLoading(nil, nil)

	client := backend.New(backend.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout,
		Storage:  st,
		Notifier: notifier,
		Loading:  loading,
		Logger:   log,
	})

	session := store.NewSession(client, st, log)
	fortune := store.NewFortune(client, session, st, notifier, log)
	vip := store.NewVip(client, session, st, log)

	return &app{
		cfg:     cfg,
		session: session,
		fortune: fortune,
		vip:     vip,
	}, nil
}
