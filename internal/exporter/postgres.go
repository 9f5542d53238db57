package exporter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/database"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS futures;

	CREATE TABLE IF NOT EXISTS futures.contract_daily (
		contract_code  TEXT    NOT NULL,
		contract_name  TEXT    NOT NULL,
		trade_date     DATE    NOT NULL,
		open_price     NUMERIC NOT NULL,
		close_price    NUMERIC NOT NULL,
		high_price     NUMERIC NOT NULL,
		low_price      NUMERIC NOT NULL,
		volume         BIGINT  NOT NULL,
		turnover       NUMERIC NOT NULL,
		amplitude      NUMERIC NOT NULL,
		pct_change     NUMERIC NOT NULL,
		abs_change     NUMERIC NOT NULL,
		run_id         TEXT,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (contract_code, trade_date)
	);

	CREATE TABLE IF NOT EXISTS futures.yearly_close (
		series_name  TEXT    NOT NULL,
		trade_date   DATE    NOT NULL,
		close_price  NUMERIC NOT NULL,
		run_id       TEXT,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (series_name, trade_date)
	);
`

const upsertContractSQL = `
	INSERT INTO futures.contract_daily (
		contract_code, contract_name, trade_date,
		open_price, close_price, high_price, low_price,
		volume, turnover, amplitude, pct_change, abs_change, run_id, updated_at
	) VALUES ($1, $2, $3::date, $4::numeric, $5::numeric, $6::numeric, $7::numeric,
		$8, $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13, NOW())
	ON CONFLICT (contract_code, trade_date) DO UPDATE SET
		contract_name = EXCLUDED.contract_name,
		open_price = EXCLUDED.open_price,
		close_price = EXCLUDED.close_price,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		volume = EXCLUDED.volume,
		turnover = EXCLUDED.turnover,
		amplitude = EXCLUDED.amplitude,
		pct_change = EXCLUDED.pct_change,
		abs_change = EXCLUDED.abs_change,
		run_id = EXCLUDED.run_id,
		updated_at = NOW()`

const upsertYearlySQL = `
	INSERT INTO futures.yearly_close (series_name, trade_date, close_price, run_id, updated_at)
	VALUES ($1, $2::date, $3::numeric, $4, NOW())
	ON CONFLICT (series_name, trade_date) DO UPDATE SET
		close_price = EXCLUDED.close_price,
		run_id = EXCLUDED.run_id,
		updated_at = NOW()`

// PostgresExporter upserts a collection snapshot into PostgreSQL
type PostgresExporter struct {
	db     *database.DB
	runID  string
	logger *logger.Logger
}

// NewPostgresExporter creates a new PostgresExporter; runID tags every upserted row
func NewPostgresExporter(db *database.DB, runID string, log *logger.Logger) *PostgresExporter {
	return &PostgresExporter{
		db:     db,
		runID:  runID,
		logger: log.WithField("module", "postgres_exporter"),
	}
}

// EnsureSchema creates the snapshot tables if they do not exist
func (p *PostgresExporter) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Export upserts every contract row and yearly point in one transaction
func (p *PostgresExporter) Export(ctx context.Context, result *contracts.CollectionResult) (string, error) {
	if result.IsEmpty() {
		return "", fmt.Errorf("%w: nothing to export", contracts.ErrNoData)
	}

	if err := p.EnsureSchema(ctx); err != nil {
		return "", err
	}

	batch := &pgx.Batch{}
	for _, set := range result.ContractRows {
		for _, r := range set {
			batch.Queue(upsertContractSQL,
				r.ContractCode, r.ContractName, r.Date.String(),
				r.Open.String(), r.Close.String(), r.High.String(), r.Low.String(),
				r.Volume, r.Turnover.String(), r.Amplitude.String(),
				r.PctChange.String(), r.AbsChange.String(), p.runID,
			)
		}
	}
	for _, name := range result.YearlyOrder {
		for _, pt := range result.YearlyData[name] {
			batch.Queue(upsertYearlySQL, name, pt.Date.String(), pt.ClosePrice.String(), p.runID)
		}
	}

	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return "", fmt.Errorf("upsert row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return "", fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"contract_rows": result.RowCount(),
		"yearly_series": len(result.YearlyOrder),
		"run_id":        p.runID,
	}).Info("Snapshot upserted")

	return "postgres:futures", nil
}
