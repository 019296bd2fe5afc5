package app

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"maturix/internal/gateway/config"
	artifactrepo "maturix/internal/gateway/repository/artifact"
	evaluationrepo "maturix/internal/gateway/repository/evaluation"
	sessionrepo "maturix/internal/gateway/repository/session"
)

type gatewayStores struct {
	defs      evaluationrepo.Store
	sessions  sessionrepo.Store
	artifacts artifactrepo.Store
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	artifacts, err := chooseArtifactStore(cfg)
	if err != nil {
		return nil, err
	}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		return initPostgresStores(dsn, artifacts)
	}
	log.Printf("stores: no DATABASE_URL, using in-memory backends")
	return &gatewayStores{
		defs:      evaluationrepo.NewCachedStore(evaluationrepo.NewMemoryStore(), evaluationrepo.DefaultCacheConfig()),
		sessions:  sessionrepo.NewMemoryStore(),
		artifacts: artifacts,
	}, nil
}

func initPostgresStores(dsn string, artifacts artifactrepo.Store) (*gatewayStores, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	return &gatewayStores{
		defs:      evaluationrepo.NewCachedStore(evaluationrepo.NewPostgresStoreDB(db), evaluationrepo.DefaultCacheConfig()),
		sessions:  sessionrepo.NewPostgresStoreDB(db),
		artifacts: artifacts,
	}, nil
}

func chooseArtifactStore(cfg *config.Config) (artifactrepo.Store, error) {
	if cfg.Artifact.CanUseS3() {
		s3Store, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Artifact.Bucket, cfg.Artifact.Endpoint)
		return s3Store, nil
	}
	if cfg.Artifact.Enabled {
		log.Printf("artifact store: using in-memory fallback (s3 config incomplete)")
	}
	return artifactrepo.NewMemoryStore(), nil
}
