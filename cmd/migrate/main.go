package main

import (
	"context"
	"log"

	"legalis/pkg/config"
	"legalis/pkg/logger"
	"legalis/pkg/postgres"

	"go.uber.org/zap"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		filename VARCHAR(512) NOT NULL,
		media_type VARCHAR(128) NOT NULL,
		file_size BIGINT NOT NULL,
		storage_key VARCHAR(512) NOT NULL,
		analysis_status VARCHAR(32) NOT NULL DEFAULT 'pending',
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		document_type VARCHAR(255) NOT NULL,
		summary TEXT NOT NULL,
		key_terms JSONB NOT NULL DEFAULT '[]',
		calculations JSONB NOT NULL DEFAULT '{}',
		risk_assessment JSONB NOT NULL DEFAULT '{}',
		fraud_indicators JSONB NOT NULL DEFAULT '[]',
		unusual_clauses JSONB NOT NULL DEFAULT '[]',
		suggested_questions JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_analyses_document_id ON analyses(document_id)`,
	`CREATE TABLE IF NOT EXISTS reply_letters (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		user_responses JSONB NOT NULL DEFAULT '{}',
		generated_letter TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reply_letters_document_id ON reply_letters(document_id)`,
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Applying schema...")
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			appLogger.Fatal("Migration statement failed", zap.Error(err))
		}
	}
	appLogger.Info("Schema is up to date")
}
