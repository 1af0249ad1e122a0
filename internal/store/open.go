package store

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/config"
	"github.com/zaqqye/vdi_docgen/internal/database"
)

// Open builds the backend selected by STORE_BACKEND. An empty selection picks
// GitHub when its credentials are set and the local file otherwise. Missing
// GitHub credentials never fail startup; they fall back to the local file.
func Open(cfg *config.Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gh := GitHubConfig{
		Token:   cfg.GitHubToken,
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Branch:  cfg.GitHubBranch,
		Path:    cfg.GitHubPath,
		BaseURL: cfg.GitHubAPIURL,
		Timeout: cfg.GitHubTimeout,
	}

	backend := cfg.StoreBackend
	if backend == "" {
		backend = "local"
		if gh.Complete() {
			backend = "github"
		}
	}
	if backend == "github" && !gh.Complete() {
		log.Warn("github credentials incomplete, using local store",
			zap.Bool("token", gh.Token != ""),
			zap.String("owner", gh.Owner),
			zap.String("repo", gh.Repo))
		backend = "local"
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case "local":
		s, err = NewLocal(cfg.DataDir, nil, log)
	case "github":
		s, err = NewGitHub(gh, NewReadCache(cfg.CacheTTL, time.Now), nil, log)
	case "database":
		db, derr := database.Connect(cfg)
		if derr != nil {
			return nil, fmt.Errorf("database connect: %w", derr)
		}
		if derr := database.Migrate(db); derr != nil {
			return nil, fmt.Errorf("database migrate: %w", derr)
		}
		s = NewDatabase(db, nil)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}
	log.Info("store ready", zap.String("backend", s.Name()))
	return WithRetry(s, cfg.WriteRetries, 250*time.Millisecond), nil
}
