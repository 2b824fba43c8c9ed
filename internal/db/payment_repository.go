package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Create(ctx context.Context, entity *PaymentEntity) (*PaymentEntity, error) {
	query := `INSERT INTO payment (id, company_ref, amount, currency, trans_token, trans_ref, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		entity.ID, entity.CompanyRef, entity.Amount, entity.Currency,
		entity.TransToken, entity.TransRef, entity.Status, entity.CreatedAt,
	).Scan(&entity.ID)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *PaymentRepository) GetByTransToken(ctx context.Context, token string) (*PaymentEntity, error) {
	query := `SELECT id, company_ref, amount, currency, trans_token, trans_ref, status,
	                 result_code, result_explanation, created_at, updated_at, verified_at
	          FROM payment WHERE trans_token = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, token))
}

func (r *PaymentRepository) GetByCompanyRef(ctx context.Context, companyRef string) (*PaymentEntity, error) {
	query := `SELECT id, company_ref, amount, currency, trans_token, trans_ref, status,
	                 result_code, result_explanation, created_at, updated_at, verified_at
	          FROM payment WHERE company_ref = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, companyRef))
}

// UpdateVerifyResult records the outcome of a verifyToken call against the
// payment holding the token.
func (r *PaymentRepository) UpdateVerifyResult(ctx context.Context, token, status, resultCode, resultExplanation string, verifiedAt time.Time) error {
	query := `UPDATE payment
	          SET status = $2, result_code = $3, result_explanation = $4, verified_at = $5, updated_at = now()
	          WHERE trans_token = $1`
	_, err := r.pool.Exec(ctx, query, token, status, resultCode, resultExplanation, verifiedAt)
	return err
}

func (r *PaymentRepository) scanOne(row interface{ Scan(dest ...any) error }) (*PaymentEntity, error) {
	var entity PaymentEntity
	err := row.Scan(
		&entity.ID, &entity.CompanyRef, &entity.Amount, &entity.Currency,
		&entity.TransToken, &entity.TransRef, &entity.Status,
		&entity.ResultCode, &entity.ResultExplanation,
		&entity.CreatedAt, &entity.UpdatedAt, &entity.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}
