package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/vbonduro/vistoria/internal/blobstore"
	"github.com/vbonduro/vistoria/internal/blobstore/gcs"
	"github.com/vbonduro/vistoria/internal/blobstore/local"
	"github.com/vbonduro/vistoria/internal/config"
	"github.com/vbonduro/vistoria/internal/db"
	"github.com/vbonduro/vistoria/internal/logging"
	"github.com/vbonduro/vistoria/internal/report"
	"github.com/vbonduro/vistoria/internal/service"
	"github.com/vbonduro/vistoria/internal/store"
	"github.com/vbonduro/vistoria/internal/store/postgres"
	"github.com/vbonduro/vistoria/internal/templates"
	"github.com/vbonduro/vistoria/internal/vision"
	claudevision "github.com/vbonduro/vistoria/internal/vision/claude"
	ollamavision "github.com/vbonduro/vistoria/internal/vision/ollama"
	"github.com/vbonduro/vistoria/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	blobs, closeBlobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBlobs()

	tmpl := templates.Default()
	if cfg.TemplatesFile != "" {
		tmpl, err = templates.Load(cfg.TemplatesFile)
		if err != nil {
			return err
		}
		logger.Info("loaded room templates", "file", cfg.TemplatesFile, "rooms", len(tmpl.All()))
	}

	renderer := report.NewRenderer(report.Options{
		Brand:            cfg.Brand,
		InspectorName:    cfg.InspectorName,
		InspectorLicense: cfg.InspectorLicense,
	})

	svc := service.NewInspectionService(repo, blobs, newVisionAnalyzer(cfg, logger), renderer, tmpl, cfg.ReportDir, logger)
	if err := svc.Refresh(ctx); err != nil {
		return err
	}

	server := web.NewServer(svc, blobs, logger)
	return server.ListenAndServe(cfg.ListenAddr)
}

func openRepository(cfg *config.Config, logger *slog.Logger) (service.InspectionRepository, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, nil, errors.New("DATABASE_DSN is required when STORE_BACKEND=postgres")
		}
		pg, err := postgres.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return pg, func() {
			if err := pg.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", "path", cfg.DBPath)
		return store.NewInspectionStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
}

// openBlobStore returns a nil store when publishing is disabled. Reports are
// then only written to the report directory.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blobstore.BlobStore, func(), error) {
	switch cfg.ReportBackend {
	case "none":
		logger.Info("report publishing disabled")
		return nil, func() {}, nil
	case "gcs":
		st, err := gcs.New(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("publishing reports to gcs", "bucket", cfg.GCSBucket)
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Error("failed to close gcs client", "error", err)
			}
		}, nil
	default:
		st, err := local.New(cfg.ReportPath, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("publishing reports locally", "path", cfg.ReportPath)
		return st, func() {}, nil
	}
}

func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) vision.Analyzer {
	switch cfg.VisionBackend {
	case "none":
		logger.Info("photo analysis disabled")
		return nil
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	default:
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel)
	}
}
