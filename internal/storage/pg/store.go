// Package pg: журнал сделок и снапшоты позиций в Postgres.
package pg

import (
	"context"
	"errors"
	"fmt"

	"grid_bot/internal/models"
	"grid_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS grid_trades (
	id             BIGSERIAL PRIMARY KEY,
	inst_id        TEXT        NOT NULL,
	side           TEXT        NOT NULL,
	price          NUMERIC     NOT NULL,
	base_quantity  NUMERIC     NOT NULL,
	quote_quantity NUMERIC     NOT NULL,
	ts             BIGINT      NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS grid_trades_inst_id_idx ON grid_trades (inst_id, id);

CREATE TABLE IF NOT EXISTS grid_positions (
	inst_id    TEXT PRIMARY KEY,
	positions  JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const (
	insertTrade = `INSERT INTO grid_trades (inst_id, side, price, base_quantity, quote_quantity, ts)
VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6)`

	upsertPositions = `INSERT INTO grid_positions (inst_id, positions, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (inst_id) DO UPDATE SET positions = EXCLUDED.positions, updated_at = now()`

	selectPositions = `SELECT positions FROM grid_positions WHERE inst_id = $1`

	selectTrades = `SELECT side, price::text, base_quantity::text, quote_quantity::text, ts
FROM (
	SELECT * FROM grid_trades WHERE inst_id = $1 ORDER BY id DESC LIMIT $2
) t ORDER BY id`

	selectAllTrades = `SELECT side, price::text, base_quantity::text, quote_quantity::text, ts
FROM grid_trades WHERE inst_id = $1 ORDER BY id`
)

type Store struct {
	db db.TxManager
}

func New(tm db.TxManager) *Store {
	return &Store{db: tm}
}

func (s *Store) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Migrate: %w", err)
		}
	}()
	_, err = s.db.Conn().Exec(ctx, schema)
	return err
}

// SaveFill пишет сделки и новый снапшот позиций одной транзакцией.
func (s *Store) SaveFill(ctx context.Context, instID string, trades []models.Trade, positions models.Positions) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.SaveFill: %w", err)
		}
	}()

	snapshot, err := encodePositions(positions)
	if err != nil {
		return err
	}

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range trades {
			batch.Queue(insertTrade, instID, string(t.Side),
				t.Price.String(), t.BaseQuantity.String(), t.QuoteQuantity.String(), t.Timestamp)
		}
		batch.Queue(upsertPositions, instID, snapshot)

		return tx.SendBatch(ctxTx, batch).Close()
	})
}

func (s *Store) LoadPositions(ctx context.Context, instID string) (_ models.Positions, _ bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.LoadPositions: %w", err)
		}
	}()

	var raw []byte
	err = s.db.Conn().QueryRow(ctx, selectPositions, instID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	ps, err := decodePositions(raw)
	if err != nil {
		return nil, false, err
	}
	return ps, true, nil
}

// ListTrades отдаёт последние limit сделок в хронологическом порядке; limit <= 0: вся история.
func (s *Store) ListTrades(ctx context.Context, instID string, limit int) (_ models.Trades, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListTrades: %w", err)
		}
	}()

	var rows pgx.Rows
	if limit > 0 {
		rows, err = s.db.Conn().Query(ctx, selectTrades, instID, limit)
	} else {
		rows, err = s.db.Conn().Query(ctx, selectAllTrades, instID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out models.Trades
	for rows.Next() {
		var side, price, base, quote string
		var ts int64
		if err := rows.Scan(&side, &price, &base, &quote, &ts); err != nil {
			return nil, err
		}
		t, err := tradeFromRow(side, price, base, quote, ts)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func encodePositions(ps models.Positions) ([]byte, error) {
	return sonic.Marshal(ps)
}

func decodePositions(raw []byte) (models.Positions, error) {
	var ps models.Positions
	if err := sonic.Unmarshal(raw, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func tradeFromRow(side, price, base, quote string, ts int64) (models.Trade, error) {
	var s models.TradeSide
	if err := s.UnmarshalText([]byte(side)); err != nil {
		return models.Trade{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return models.Trade{}, err
	}
	b, err := decimal.NewFromString(base)
	if err != nil {
		return models.Trade{}, err
	}
	q, err := decimal.NewFromString(quote)
	if err != nil {
		return models.Trade{}, err
	}
	return models.NewTrade(s, p, b, q, ts), nil
}
