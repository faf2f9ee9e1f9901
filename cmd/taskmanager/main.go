// Command taskmanager runs the task management API.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"task-manager/server/internal/config"
	"task-manager/server/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "taskmanager",
	Short:         "Task management REST API",
	SilenceUsage:  true,
}

var envFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")
}

// loadConfig reads path into the environment (variables already set win),
// then builds the config and installs the logger.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
