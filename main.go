package main

import (
	"field-verify/internal/config"
	"field-verify/internal/farms"
	"field-verify/internal/gate"
	"field-verify/internal/handlers"
	"field-verify/internal/jobs"
	"field-verify/internal/proximity"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
)

func setupLogging(logDir string) (*os.File, error) {
	if logDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	w := io.MultiWriter(os.Stdout, file)
	log.SetOutput(w)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	slog.SetDefault(slog.New(slog.NewTextHandler(w, nil)))
	gin.DefaultWriter = w
	return file, nil
}

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logFile, err := setupLogging(cfg.LogDir)
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	policy, err := proximity.NewPolicy(cfg.Proximity.ExcellentMeters, cfg.Proximity.ThresholdMeters, cfg.Proximity.MaxAccuracyMeters)
	if err != nil {
		log.Fatalf("Invalid proximity configuration %+v: %v", cfg.Proximity, err)
	}

	registry := farms.NewRegistry()
	if cfg.FarmsFile != "" {
		list, err := farms.LoadFile(cfg.FarmsFile)
		if err != nil {
			log.Fatalf("Error loading farms: %v", err)
		}
		if err := registry.AddAll(list); err != nil {
			log.Fatalf("Error indexing farms: %v", err)
		}
		log.Printf("Loaded %d farms from %s", registry.Len(), cfg.FarmsFile)
	} else {
		log.Println("FARMS_FILE not set; farm registry is empty")
	}

	if cfg.SecretGenerated {
		log.Println("SESSION_SECRET not set; generated a random one, sessions will not survive a restart")
	}
	if cfg.OfficialPassword == "" {
		log.Println("OFFICIAL_PASSWORD not set; official login is disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	r := handlers.NewRouter(handlers.Deps{
		Registry:      registry,
		Sessions:      gate.NewSessions(policy, cfg.GateIdleTTL),
		Jobs:          jobs.NewStore(),
		Policy:        policy,
		Credentials:   handlers.Credentials{Username: cfg.OfficialUser, Password: cfg.OfficialPassword},
		SessionSecret: cfg.SessionSecret,
		UploadDir:     cfg.UploadDir,
		OutputDir:     cfg.OutputDir,
	})

	log.Printf("Field verification server running on port %s (gate threshold %.0fm)", cfg.Port, policy.ThresholdMeters)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
