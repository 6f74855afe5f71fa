package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zaviye/zaviye/internal/cli"
	"github.com/zaviye/zaviye/internal/config"
	"github.com/zaviye/zaviye/internal/logging"
	"github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/service/chat"
	"github.com/zaviye/zaviye/internal/service/completion"
	"github.com/zaviye/zaviye/internal/service/settings"
	"github.com/zaviye/zaviye/internal/storage"
)

func main() {
	configPath := flag.String("config", config.DefaultFile(), "path to the TOML configuration file")
	personaID := flag.String("persona", "", "persona to open (glitch, blame or reson)")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath, *personaID); err != nil {
		fmt.Fprintf(os.Stderr, "zaviye: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, personaID string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// the terminal belongs to the conversation
	if strings.TrimSpace(cfg.Log.File) == "" {
		cfg.Log.File = filepath.Join(config.DefaultDir(), "logs", "zaviye.log")
	}
	logger, err := logging.Init(cfg.Log)
	if err != nil {
		log.Printf("warning: failed to open log file: %v", err)
	}

	kv, err := openStore(cfg.Client)
	if err != nil {
		return err
	}
	if closer, ok := kv.(io.Closer); ok {
		defer closer.Close()
	}

	personas := persona.NewMemoryStore(persona.Seed())
	settingsStore := settings.NewStore(kv, personas.List(), logger)

	client := completion.NewClient(cfg.Client.Endpoint,
		completion.WithTimeout(cfg.Client.Timeout.Duration),
		completion.WithLogger(logger),
	)
	completer := completion.WithRetry(client,
		completion.WithAttempts(cfg.Client.RetryAttempts),
		completion.WithBaseDelay(cfg.Client.RetryDelay.Duration),
		completion.WithRetryLogger(logger),
	)

	manager := chat.NewManager(chat.Options{
		Store:     kv,
		Settings:  settingsStore,
		Completer: completer,
		Personas:  personas,
		Clock:     time.Now,
		Logger:    logger,
	})

	if personaID == "" {
		personaID = cfg.Client.Persona
	}
	if err := manager.Load(personaID); err != nil {
		return err
	}

	input := cli.NewChatCLI(filepath.Join(config.DefaultDir(), "history"))
	defer input.Close()

	logger.Info("client_started", "endpoint", cfg.Client.Endpoint, "storage", cfg.Client.Storage, "persona", personaID)
	return cli.NewApp(manager, settingsStore, personas, os.Stdout).Run(context.Background(), input)
}

func openStore(cfg config.ClientConfig) (storage.Store, error) {
	path := cfg.StoragePath
	if strings.EqualFold(cfg.Storage, storage.BackendSQLite) && path == config.Default().Client.StoragePath {
		path = filepath.Join(config.DefaultDir(), "state.db")
	}
	if cfg.Storage != storage.BackendMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	kv, err := storage.Open(cfg.Storage, path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage, err)
	}
	return kv, nil
}
