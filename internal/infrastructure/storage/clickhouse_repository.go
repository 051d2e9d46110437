package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
)

// ClickHouseRepository implements the SweepAudit interface using ClickHouse
// as the backend database. Every sweep attempt is appended as one row,
// giving a durable, queryable audit trail of fund recovery.
type ClickHouseRepository struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseRepository(cfg ClickHouseConfig) (*ClickHouseRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	// Check the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	// Ensure tables exist
	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseRepository{conn: conn}, nil
}

// Ensure ClickHouseRepository implements the SweepAudit interface
var _ repository.SweepAudit = (*ClickHouseRepository)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	return conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS sweep_attempts (
			session_id String,
			wallet_address String,
			vault_address String,
			amount Float64,
			success UInt8,
			signature String,
			error String,
			attempted_at DateTime,
			recorded_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (session_id, attempted_at)
	`)
}

// RecordAttempt appends one sweep attempt to the audit log.
func (r *ClickHouseRepository) RecordAttempt(ctx context.Context, attempt *model.SweepAttempt) error {
	query := `
		INSERT INTO sweep_attempts (
			session_id, wallet_address, vault_address, amount, success, signature, error, attempted_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	success := uint8(0)
	if attempt.Success {
		success = 1
	}

	return r.conn.AsyncInsert(ctx, query, false,
		attempt.SessionID,
		attempt.WalletAddress,
		attempt.VaultAddress,
		attempt.Amount,
		success,
		attempt.Signature,
		attempt.Error,
		attempt.AttemptedAt,
	)
}

// AttemptsForSession retrieves all recorded sweep attempts for a session
// in attempt order.
func (r *ClickHouseRepository) AttemptsForSession(ctx context.Context, sessionID string) ([]*model.SweepAttempt, error) {
	query := `
		SELECT session_id, wallet_address, vault_address, amount, success, signature, error, attempted_at
		FROM sweep_attempts
		WHERE session_id = ?
		ORDER BY attempted_at
	`

	rows, err := r.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.SweepAttempt
	for rows.Next() {
		attempt := new(model.SweepAttempt)
		var success uint8
		if err := rows.Scan(
			&attempt.SessionID,
			&attempt.WalletAddress,
			&attempt.VaultAddress,
			&attempt.Amount,
			&success,
			&attempt.Signature,
			&attempt.Error,
			&attempt.AttemptedAt,
		); err != nil {
			return nil, err
		}
		attempt.Success = success == 1
		results = append(results, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
