package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roman-kulish/drone-console/cmd/console/app"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.Parse()

	config := app.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = app.LoadConfig(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration file %s: %s\n", configPath, err)
			os.Exit(1)
		}
	}

	// stdout belongs to the display
	logFile := &lumberjack.Logger{
		Filename:   config.Settings.LogFile,
		MaxSize:    config.Settings.LogMaxSizeMB,
		MaxBackups: config.Settings.LogMaxBackups,
	}
	defer logFile.Close()

	var logLevel slog.LevelVar
	logLevel.Set(config.Settings.Level())
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: &logLevel}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, config, logger); err != nil {
		logger.Error(err.Error())
		fmt.Fprintln(os.Stderr, err.Error())

		cancel()
		_ = logFile.Close()
		os.Exit(1)
	}
}
