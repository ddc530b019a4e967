package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/baaakgun4543/unlurk/internal/config"
	"github.com/baaakgun4543/unlurk/internal/logging"
	"github.com/baaakgun4543/unlurk/internal/metrics"
	"github.com/baaakgun4543/unlurk/internal/prompt"
	"github.com/baaakgun4543/unlurk/internal/provider"
)

var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "unlurk",
		Short:        "Draft first posts for community lurkers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with UNLURK_* overrides (ignored when missing)")

	cmd.AddCommand(
		newServeCmd(opts),
		newPromptCmd(opts),
		newDraftCmd(opts),
		newBenchCmd(),
		newVersionCmd(),
	)
	return cmd
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("env file: %w", err)
	}
	return nil
}

// app is the state shared by the commands that talk to a backend.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	template string
}

func loadApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}
	tmpl, err := cfg.Template()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, template: tmpl}, nil
}

func (a *app) dispatcher() *provider.Dispatcher {
	return provider.New(a.cfg.ProviderConfig(), provider.WithObserver(provider.Observers{
		provider.LogObserver{Logger: a.logger},
		metrics.Observer{},
	}))
}

func readContextFile(path string) (prompt.Context, error) {
	if path == "" {
		return prompt.Context{}, nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	c, err := prompt.ParseContext(data)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readTemplate(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "unlurk", version)
		},
	}
}
