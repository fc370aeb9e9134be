package storage

import (
	"context"
	"database/sql"
	"fmt"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres through the pgx driver and wraps the pool in GORM.
func Open(ctx context.Context, databaseURL string, maxConns int) (*gorm.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetMaxIdleConns(maxConns / 2)
	sqlDB.SetMaxOpenConns(maxConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the system uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllRows()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

const notifyFunction = `
CREATE OR REPLACE FUNCTION notify_row_insert() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(%s, json_build_object(
		'table', TG_TABLE_NAME,
		'operation', TG_OP,
		'row', row_to_json(NEW)
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`

// InstallNotifyTriggers makes Postgres announce inserts on tables through
// NOTIFY so PostgresFeed listeners see writes from any process.
func InstallNotifyTriggers(ctx context.Context, db *gorm.DB, tables ...string) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec(fmt.Sprintf(notifyFunction, pq.QuoteLiteral(config.PostgresNotifyName))).Error; err != nil {
		return fmt.Errorf("install notify function: %w", err)
	}
	for _, table := range tables {
		trigger := pq.QuoteIdentifier(table + "_notify_insert")
		target := pq.QuoteIdentifier(table)
		stmts := []string{
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, target),
			fmt.Sprintf("CREATE TRIGGER %s AFTER INSERT ON %s FOR EACH ROW EXECUTE FUNCTION notify_row_insert()", trigger, target),
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("install notify trigger on %s: %w", table, err)
			}
		}
	}
	return nil
}
