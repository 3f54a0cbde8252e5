package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suyog1pathak/wsprobe/internal/console"
	"github.com/suyog1pathak/wsprobe/internal/probe"
	"github.com/suyog1pathak/wsprobe/pkg/logger"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "wsprobe",
		Short: "Websocket connectivity probe",
		Long: `wsprobe opens a secure websocket connection, waits to see whether the remote
endpoint stays idle, sends a minimal {"type":"config"} message and reports how
the server responds. It is a single-shot diagnostic: no retries, no reconnects.`,
		Version:      "0.1.0",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			logger.InitLogger(logger.Options{
				Debug:  v.GetBool("debug"),
				Format: v.GetString("log-format"),
				Output: cmd.ErrOrStderr(),
			})

			// Every probe outcome, failures included, is a successful diagnostic run.
			probe.Run(cmd.Context(), cfg, console.New(cmd.OutOrStdout()))
			return nil
		},
	}

	defaults := probe.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wsprobe.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-format", "text", "structured log format on stderr (text, json)")
	flags.String("url", defaults.URL, "websocket endpoint to probe")
	flags.Bool("insecure", defaults.Insecure, "skip TLS certificate and hostname verification")
	flags.Duration("handshake-timeout", defaults.HandshakeTimeout, "websocket opening handshake timeout")
	flags.Duration("idle-wait", defaults.IdleWait, "how long to wait for an unsolicited message after connecting")
	flags.Duration("response-wait", defaults.ResponseWait, "how long to wait for a reply to the config message")

	v.BindPFlags(flags)

	cmd.AddCommand(newConfigCmd(v))

	return cmd
}

func initConfig(v *viper.Viper, cfgFile string, stderr io.Writer) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".wsprobe")
	}

	v.SetEnvPrefix("WSPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	fmt.Fprintln(stderr, "Using config file:", v.ConfigFileUsed())
	return nil
}

func loadConfig(v *viper.Viper) (probe.Config, error) {
	cfg := probe.Config{
		URL:              v.GetString("url"),
		Insecure:         v.GetBool("insecure"),
		HandshakeTimeout: v.GetDuration("handshake-timeout"),
		IdleWait:         v.GetDuration("idle-wait"),
		ResponseWait:     v.GetDuration("response-wait"),
	}
	if err := cfg.Validate(); err != nil {
		return probe.Config{}, err
	}
	return cfg, nil
}

type effectiveConfig struct {
	probe.Config `yaml:",inline"`
	Debug        bool   `yaml:"debug"`
	LogFormat    string `yaml:"log-format"`
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(effectiveConfig{
				Config:    cfg,
				Debug:     v.GetBool("debug"),
				LogFormat: v.GetString("log-format"),
			}); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
