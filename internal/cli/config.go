// Package cli holds the configuration and logging setup shared by the download-stats commands.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InitViperConfig loads the configuration file of cmdName into vip and binds its environment variables.
// A missing configuration file is not an error: flags, environment and defaults still apply.
func InitViperConfig(cmdName string, cmd *cobra.Command, vip *viper.Viper) error {
	if p, err := cmd.Flags().GetString("config"); err == nil && p != "" {
		vip.SetConfigFile(p)
	} else {
		vip.SetConfigName(cmdName)
		for _, dir := range configDirs(cmdName) {
			vip.AddConfigPath(dir)
		}
	}

	err := vip.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		slog.Info("No configuration file, using flags, environment and defaults", "name", cmdName)
	case err != nil:
		return fmt.Errorf("invalid configuration file: %w", err)
	default:
		slog.Info("Using configuration file", "file", vip.ConfigFileUsed())
	}

	return bindEnv(cmdName, vip)
}

// configDirs lists where the configuration file is searched, first match wins.
func configDirs(cmdName string) []string {
	dirs := []string{".", filepath.Join("/etc", cmdName), filepath.Join("/usr/local/etc", cmdName)}

	bin, err := os.Executable()
	if err != nil {
		slog.Warn("Could not locate executable, not searching its directory for configuration", "error", err)
		return dirs
	}
	return append(dirs, filepath.Dir(bin))
}

// bindEnv maps every set PREFIX_SOME_KEY variable to the some-key configuration key, so that
// Unmarshal sees keys which are in no flag nor configuration file.
func bindEnv(cmdName string, vip *viper.Viper) error {
	vip.SetEnvPrefix(cmdName)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	prefix := strings.ToUpper(strings.ReplaceAll(cmdName, "-", "_")) + "_"
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix), "_", "-"))
		if err := vip.BindEnv(key, name); err != nil {
			return fmt.Errorf("could not bind environment variable %s: %w", name, err)
		}
	}
	return nil
}

// InstallConfigFlag adds the --config flag to cmd.
func InstallConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().String("config", "", "configuration file to use instead of searching for "+cmd.Name()+".yaml")
}
