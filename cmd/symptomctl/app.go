package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vcscsvcscs/symptom-checker/internal/client"
	"github.com/vcscsvcscs/symptom-checker/internal/repository"
	"go.uber.org/zap"
)

// app carries what every command needs. It is built lazily in the root
// command's PersistentPreRunE.
type app struct {
	out    io.Writer
	config *viper.Viper
	logger *zap.Logger

	store repository.KeyValueStore
	state *repository.LocalState
	api   *client.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	return (&app{out: out, config: viper.New()}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "symptomctl",
		Short:         "AI symptom checker client",
		Long:          "Describe symptoms, keep a local health log and generate medical reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(a.out)

	flags := rootCmd.PersistentFlags()
	flags.String("server", client.DefaultBaseURL, "symptom checker API base URL")
	flags.String("store", "", "local state backend: file path, memory:, redis:// or postgres:// URL (default user config dir)")
	flags.String("encryption-key", "", "passphrase used to encrypt the local state")
	flags.Duration("timeout", client.DefaultTimeout, "API request timeout")
	flags.Bool("verbose", false, "log debug output to stderr")

	for _, name := range []string{"server", "store", "encryption-key", "timeout", "verbose"} {
		_ = a.config.BindPFlag(name, flags.Lookup(name))
	}
	a.config.SetEnvPrefix("SYMPTOMCTL")
	a.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.config.AutomaticEnv()

	rootCmd.AddCommand(
		a.profileCmd(),
		a.analyzeCmd(),
		a.reportCmd(),
		a.logCmd(),
		a.settingsCmd(),
		a.facilitiesCmd(),
		a.resetCmd(),
		a.healthCmd(),
	)
	return rootCmd
}

func (a *app) init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if a.logger == nil {
		a.logger = zap.NewNop()
		if a.config.GetBool("verbose") {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			a.logger = logger
		}
	}

	if a.store == nil {
		store, err := repository.Open(ctx, a.config.GetString("store"), a.logger)
		if err != nil {
			return fmt.Errorf("failed to open local state: %w", err)
		}
		if key := a.config.GetString("encryption-key"); key != "" {
			encrypted, err := repository.OpenEncryptedStore(ctx, store, key)
			if err != nil {
				_ = store.Close()
				return err
			}
			store = encrypted
		}
		a.store = store
	}
	a.state = repository.NewLocalState(a.store, a.logger)

	if a.api == nil {
		a.api = client.New(client.Options{
			BaseURL: a.config.GetString("server"),
			Timeout: a.config.GetDuration("timeout"),
		}, a.logger)
	}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) printJSON(value any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}

func formatDate(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 15:04")
}
