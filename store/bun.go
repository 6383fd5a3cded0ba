package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/flarepay/paylink/types"
)

// BunStore persists records through a *bun.DB. The dialect is the caller's
// choice; the queries stick to portable bun constructs. No retries happen
// here — I/O failures surface as STORAGE_UNAVAILABLE and retry policy stays
// with the caller.
type BunStore struct {
	db *bun.DB
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// Init creates the payment_requests table when it does not exist yet.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*types.PaymentRequest)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return unavailable("init", err)
	}
	return nil
}

func (s *BunStore) Put(ctx context.Context, rec *types.PaymentRequest) error {
	if rec == nil || rec.ID == "" {
		return types.NewError(types.ErrInvalidInput, "record id cannot be empty")
	}

	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("recipient = EXCLUDED.recipient").
		Set("memo = EXCLUDED.memo").
		Set("expiry = EXCLUDED.expiry").
		Set("status = EXCLUDED.status").
		Set("created_at = EXCLUDED.created_at").
		Set("confirmed_at = EXCLUDED.confirmed_at").
		Set("created_by = EXCLUDED.created_by").
		Set("tx_ref = EXCLUDED.tx_ref").
		Set("block_ref = EXCLUDED.block_ref").
		Set("failure_reason = EXCLUDED.failure_reason").
		Set("proof = EXCLUDED.proof").
		Exec(ctx)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *BunStore) Merge(ctx context.Context, id string, patch types.PaymentPatch) (*types.PaymentRequest, error) {
	var merged *types.PaymentRequest

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		rec := new(types.PaymentRequest)
		err := tx.NewSelect().
			Model(rec).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return err
		}

		patch.Apply(rec)
		if _, err := tx.NewUpdate().Model(rec).WherePK().Exec(ctx); err != nil {
			return err
		}
		merged = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, unavailable("merge", err)
	}
	return merged, nil
}

func (s *BunStore) Get(ctx context.Context, id string) (*types.PaymentRequest, error) {
	rec := new(types.PaymentRequest)
	err := s.db.NewSelect().
		Model(rec).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, unavailable("get", err)
	}
	return rec, nil
}

func (s *BunStore) List(ctx context.Context, filter types.ListFilter) ([]*types.PaymentRequest, error) {
	var recs []*types.PaymentRequest

	q := s.db.NewSelect().Model(&recs)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	if err := q.Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, unavailable("list", err)
	}
	return recs, nil
}
