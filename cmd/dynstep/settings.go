package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	settingsFileName = "settings"
	settingsFileType = "yaml"
	envPrefix        = "DYNSTEP"

	keyData    = "data"
	keyVerbose = "verbose"

	defaultDataDir = ".dynstep"
)

// settings are the CLI-wide options. Precedence: flag, DYNSTEP_* env,
// settings.yaml in the working directory or ~/.dynstep, default.
type settings struct {
	DataDir string
	Verbose bool
	Logger  *slog.Logger
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	v := viper.New()
	v.SetDefault(keyData, defaultDataDir)
	v.SetDefault(keyVerbose, false)

	v.SetConfigName(settingsFileName)
	v.SetConfigType(settingsFileType)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, defaultDataDir))
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for _, key := range []string{keyData, keyVerbose} {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind %s: %w", key, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	s := &settings{
		DataDir: v.GetString(keyData),
		Verbose: v.GetBool(keyVerbose),
	}
	s.Logger = newLogger(os.Stderr, s.Verbose)
	return s, nil
}

// newLogger returns a debug-level text logger, or one that discards when
// verbose is off.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
