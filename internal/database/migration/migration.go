package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_type_client_type",
		SQL: `DO $$ BEGIN
  CREATE TYPE client_type AS ENUM ('INDIVIDUAL', 'CORPORATE');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;`,
	},
	{
		Name: "create_table_client",
		SQL: `CREATE TABLE IF NOT EXISTS client (
  id          BIGSERIAL   PRIMARY KEY,
  login       TEXT        NOT NULL,
  name        TEXT        NOT NULL,
  surname     TEXT        NOT NULL,
  description TEXT,
  type        client_type NOT NULL,
  birth_date  DATE,
  updated     TIMESTAMPTZ NOT NULL DEFAULT now(),
  created     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_attachment",
		SQL: `CREATE TABLE IF NOT EXISTS attachment (
  id        BIGSERIAL PRIMARY KEY,
  client_id BIGINT    NOT NULL REFERENCES client (id) ON DELETE CASCADE,
  type      TEXT      NOT NULL,
  length    BIGINT    NOT NULL CHECK (length >= 0),
  content   BYTEA     NOT NULL
);`,
	},
	{
		Name: "create_index_client_login",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_client_login ON client (login);`,
	},
	{
		Name: "create_index_client_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_client_type ON client (type);`,
	},
	{
		Name: "create_index_attachment_client_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_attachment_client_id ON attachment (client_id);`,
	},
}

// EnsureMigrated checks if the 'client' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.client') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("msg", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}
