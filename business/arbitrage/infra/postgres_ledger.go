package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/logger"
)

// PostgresLedger persists simulated trades in PostgreSQL via pgx.
type PostgresLedger struct {
	pool *pgxpool.Pool
	log  logger.LoggerInterface
}

const createTradesTable = `
	CREATE TABLE IF NOT EXISTS sim_trades (
		id            BIGSERIAL PRIMARY KEY,
		executed_at   TIMESTAMPTZ NOT NULL,
		symbol        TEXT NOT NULL,
		direction     TEXT NOT NULL,
		quantity      NUMERIC NOT NULL,
		buy_price     NUMERIC NOT NULL,
		sell_price    NUMERIC NOT NULL,
		profit        NUMERIC NOT NULL,
		fees          NUMERIC NOT NULL,
		balance_after NUMERIC NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sim_trades_executed_at_idx ON sim_trades (executed_at DESC);`

// NewPostgresLedger connects a pool, pings it, and ensures the schema.
func NewPostgresLedger(ctx context.Context, dsn string, log logger.LoggerInterface) (*PostgresLedger, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, createTradesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}

	return &PostgresLedger{
		pool: pool,
		log:  log.With("component", "postgres_ledger"),
	}, nil
}

// SaveTrade inserts one simulated fill.
func (l *PostgresLedger) SaveTrade(ctx context.Context, trade domain.TradeRecord) error {
	const query = `
		INSERT INTO sim_trades (
			executed_at, symbol, direction, quantity,
			buy_price, sell_price, profit, fees, balance_after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := l.pool.Exec(ctx, query,
		trade.Timestamp, trade.Symbol.String(), trade.Direction, trade.Quantity,
		trade.BuyPrice, trade.SellPrice, trade.Profit, trade.Fees, trade.BalanceAfter,
	)
	if err != nil {
		return fmt.Errorf("ledger: insert trade: %w", err)
	}
	return nil
}

// RecentTrades returns the newest trades, most recent first.
func (l *PostgresLedger) RecentTrades(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT executed_at, symbol, direction, quantity,
		       buy_price, sell_price, profit, fees, balance_after
		FROM sim_trades
		ORDER BY executed_at DESC
		LIMIT $1`

	rows, err := l.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("ledger: scan trades: %w", err)
	}
	return trades, nil
}

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var symbol string
		if err := rows.Scan(
			&t.Timestamp, &symbol, &t.Direction, &t.Quantity,
			&t.BuyPrice, &t.SellPrice, &t.Profit, &t.Fees, &t.BalanceAfter,
		); err != nil {
			return nil, err
		}
		sym, err := marketDomain.ParseSymbol(symbol)
		if err != nil {
			return nil, err
		}
		t.Symbol = sym
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close shuts down the connection pool.
func (l *PostgresLedger) Close() {
	l.pool.Close()
}
