// Command ricerca searches a directory tree by file name and content.
package main

import (
	"os"
	"path/filepath"

	"github.com/trita-a/ricerca/internal/adapters/driven/audit"
	"github.com/trita-a/ricerca/internal/adapters/driven/command"
	"github.com/trita-a/ricerca/internal/adapters/driven/config/file"
	"github.com/trita-a/ricerca/internal/adapters/driven/config/memory"
	"github.com/trita-a/ricerca/internal/adapters/driving/cli"
	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/core/services"
	"github.com/trita-a/ricerca/internal/extractors"
	"github.com/trita-a/ricerca/internal/logger"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configDir, err := file.DefaultDir()
	if err != nil {
		logger.Error("Cannot locate home directory: %v", err)
		configDir = ""
	}

	var store driven.ConfigStore
	if configDir != "" {
		if fs, err := file.NewConfigStore(configDir); err == nil {
			store = fs
		} else {
			logger.Error("Cannot read settings, using defaults: %v", err)
		}
	}
	if store == nil {
		store = memory.NewConfigStore()
	}
	settings := services.NewSettingsService(store)

	auditLog := openAuditLog(configDir)
	defer func() {
		if err := auditLog.Close(); err != nil {
			logger.Error("Failed to close audit log: %v", err)
		}
	}()

	engine := services.NewSearchEngine(
		extractors.NewDefaultRegistry(command.NewRunner(), domain.DefaultExtractLimits()),
		auditLog,
	)

	cli.SetVersion(version)
	cli.SetServices(engine, settings)
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

func openAuditLog(configDir string) driven.AuditLog {
	if configDir == "" {
		return audit.Discard{}
	}
	log, err := audit.OpenFileLog(filepath.Join(configDir, "skipped.log"))
	if err != nil {
		logger.Error("Audit log disabled: %v", err)
		return audit.Discard{}
	}
	return log
}
