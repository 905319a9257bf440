package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/OCAP2/orbat/internal/config"
	"github.com/OCAP2/orbat/internal/database"
	"github.com/OCAP2/orbat/internal/storage"
	"github.com/OCAP2/orbat/internal/storage/gormstore"
	"github.com/OCAP2/orbat/internal/storage/memory"
)

// createStorageBackend returns the configured backend and a func releasing
// whatever it holds open.
func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, func(), error) {
	switch storageCfg.Type {
	case "memory", "":
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), func() {}, nil

	case "gorm":
		dbManager := database.NewManager(ZLogger)
		if err := dbManager.Connect(storageCfg.Gorm.Driver, storageCfg.Gorm.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := dbManager.Setup(); err != nil {
			_ = dbManager.Close()
			return nil, nil, fmt.Errorf("failed to set up database: %w", err)
		}

		// an in-memory database is dumped next to the JSON recordings on close
		if dbManager.ShouldSaveLocal && storageCfg.Gorm.Path == "" {
			dbManager.SqliteFilePath = filepath.Join(
				storageCfg.Memory.OutputDir,
				fmt.Sprintf("%s_%s.db", AppName, SessionStartTime.Format("20060102_150405")),
			)
		}

		backend := gormstore.New(dbManager.DB, storageCfg.Gorm, Logger)
		Logger.Info("GORM storage backend initialized", "dialect", dbManager.DB.Dialector.Name())

		return backend, func() {
			if err := backend.Close(); err != nil {
				Logger.Error("Failed to flush storage backend", "error", err)
			}
			if dbManager.SqliteFilePath != "" {
				if err := os.MkdirAll(filepath.Dir(dbManager.SqliteFilePath), 0755); err != nil {
					Logger.Error("Failed to create output directory", "error", err)
				} else if err := dbManager.DumpMemoryToDisk(); err != nil {
					Logger.Error("Failed to dump database to disk", "error", err)
				} else {
					Logger.Info("Database saved", "path", dbManager.SqliteFilePath)
				}
			}
			if err := dbManager.Close(); err != nil {
				Logger.Error("Failed to close database", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", storageCfg.Type)
	}
}
