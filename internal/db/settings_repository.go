package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The settings table holds exactly one row.
const settingsRowID = 1

type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) Get(ctx context.Context) (*CurrencySettingsEntity, error) {
	query := `SELECT base_currency, exchange_rates, updated_at FROM currency_settings WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, settingsRowID)

	var entity CurrencySettingsEntity
	err := row.Scan(&entity.BaseCurrency, &entity.ExchangeRates, &entity.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Upsert overwrites the settings document in place.
func (r *SettingsRepository) Upsert(ctx context.Context, entity *CurrencySettingsEntity) error {
	query := `INSERT INTO currency_settings (id, base_currency, exchange_rates, updated_at)
	          VALUES ($1, $2, $3, now())
	          ON CONFLICT (id) DO UPDATE
	          SET base_currency = EXCLUDED.base_currency,
	              exchange_rates = EXCLUDED.exchange_rates,
	              updated_at = now()`
	_, err := r.pool.Exec(ctx, query, settingsRowID, entity.BaseCurrency, entity.ExchangeRates)
	return err
}
