package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// spotColumns is the canonical column list scanned by scanSpot.
const spotColumns = `id, owner_id, address, city, description, lat, lng,
	location_verified, price_cents, category, available_at, duration_min,
	expires_at, status, reserved_by, handoff_count, created_at, updated_at,
	reserved_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpot(row rowScanner) (*domain.Spot, error) {
	var s domain.Spot
	var category, status string
	var reservedBy *string

	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Address, &s.City, &s.Description,
		&s.Lat, &s.Lng, &s.LocationVerified, &s.PriceCents, &category,
		&s.AvailableAt, &s.DurationMin, &s.ExpiresAt, &status,
		&reservedBy, &s.HandoffCount, &s.CreatedAt, &s.UpdatedAt,
		&s.ReservedAt, &s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Category = domain.SpotCategory(category)
	s.Status = domain.SpotStatus(status)
	if reservedBy != nil {
		s.ReservedBy = *reservedBy
	}

	return &s, nil
}

type SpotRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SpotRepo) With(db DB) *SpotRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SpotRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// maxTxRetries bounds re-runs of a serializable transaction that lost
// to a serialization failure or deadlock.
const maxTxRetries = 3

// inTx runs fn against r.db when the repo is already bound to a
// transaction, otherwise inside a fresh serializable transaction,
// retrying on serialization failures.
func (r *SpotRepo) inTx(ctx context.Context, fn func(ctx context.Context, db DB) error) error {
	if r.db != nil {
		return fn(ctx, r.db)
	}

	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = r.serializableTx(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return err
}

func (r *SpotRepo) serializableTx(ctx context.Context, fn func(ctx context.Context, db DB) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateSpot inserts a new spot row. The caller is responsible for
// validation; the row lands already in its initial status.
//
// Returns:
//   - error: repository.ErrConflict on id collision.
func (r *SpotRepo) CreateSpot(ctx context.Context, spot *domain.Spot) error {
	const op = "postgres.SpotRepo.CreateSpot"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO spots(
			id, owner_id, address, city, description, lat, lng,
			location_verified, price_cents, category, available_at,
			duration_min, expires_at, status, handoff_count,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, $15, $15)`,
		spot.ID, spot.OwnerID, spot.Address, spot.City, spot.Description,
		spot.Lat, spot.Lng, spot.LocationVerified, spot.PriceCents,
		string(spot.Category), spot.AvailableAt, spot.DurationMin,
		spot.ExpiresAt, string(spot.Status), spot.CreatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ReserveSpot performs the available -> reserved conditional write and
// creates the conversation stub in the same transaction. Exactly one
// of any number of concurrent callers sees the update land; the rest
// are classified against the row state they lost to.
//
// Returns:
//   - *domain.Spot: the updated row when the write is accepted.
//   - error: repository.ErrNotFound, ErrOwnSpot, ErrSpotExpired or
//     ErrConflict depending on why the conditional write was rejected.
func (r *SpotRepo) ReserveSpot(
	ctx context.Context,
	id uuid.UUID,
	callerID string,
	now time.Time,
) (*domain.Spot, error) {
	const op = "postgres.SpotRepo.ReserveSpot"

	var spot *domain.Spot

	err := r.inTx(ctx, func(ctx context.Context, db DB) error {
		row := db.QueryRow(ctx,
			`UPDATE spots
				SET status = 'reserved', reserved_by = $2, reserved_at = $3, updated_at = $3
			 WHERE id = $1
				AND status = 'available'
				AND owner_id <> $2
				AND expires_at > $3
			 RETURNING `+spotColumns,
			id, callerID, now,
		)

		s, err := scanSpot(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.classifyReserveFailure(ctx, db, id, callerID, now)
			}
			return translateDBErr(err)
		}

		if _, err := db.Exec(ctx,
			`INSERT INTO conversations(id, spot_id, owner_id, reserver_id, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (spot_id, owner_id, reserver_id) DO NOTHING`,
			uuid.New(), s.ID, s.OwnerID, callerID, now,
		); err != nil {
			return translateDBErr(err)
		}

		spot = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return spot, nil
}

// classifyReserveFailure re-reads the row to distinguish why the
// conditional write matched nothing. The read happens in the same
// transaction, so the classification is consistent with the write.
func (r *SpotRepo) classifyReserveFailure(
	ctx context.Context,
	db DB,
	id uuid.UUID,
	callerID string,
	now time.Time,
) error {
	var ownerID, status string
	var expiresAt time.Time

	err := db.QueryRow(ctx,
		`SELECT owner_id, status, expires_at FROM spots WHERE id = $1`,
		id,
	).Scan(&ownerID, &status, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return translateDBErr(err)
	}

	switch {
	case ownerID == callerID:
		return repository.ErrOwnSpot
	case status == string(domain.SpotAvailable) && !expiresAt.After(now):
		return repository.ErrSpotExpired
	default:
		// Still a valid-looking spot when the caller read it, but a
		// concurrent transition was accepted first.
		return repository.ErrConflict
	}
}

// CompleteSpot performs the reserved -> completed conditional write,
// bumps the handoff counter and records the handoff, all in one
// transaction. The counter moves exactly once per accepted write, so a
// racing duplicate call is rejected rather than double-applied.
//
// Returns:
//   - *domain.Spot: the updated row when the write is accepted.
//   - error: repository.ErrNotFound, ErrNotOwner or
//     ErrInvalidTransition.
func (r *SpotRepo) CompleteSpot(
	ctx context.Context,
	id uuid.UUID,
	callerID string,
	feeCents int,
	now time.Time,
) (*domain.Spot, error) {
	const op = "postgres.SpotRepo.CompleteSpot"

	var spot *domain.Spot

	err := r.inTx(ctx, func(ctx context.Context, db DB) error {
		row := db.QueryRow(ctx,
			`UPDATE spots
				SET status = 'completed', completed_at = $3, updated_at = $3,
					handoff_count = handoff_count + 1
			 WHERE id = $1
				AND status = 'reserved'
				AND owner_id = $2
			 RETURNING `+spotColumns,
			id, callerID, now,
		)

		s, err := scanSpot(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.classifyOwnerFailure(ctx, db, id, callerID)
			}
			return translateDBErr(err)
		}

		if _, err := db.Exec(ctx,
			`INSERT INTO handoffs(id, spot_id, owner_id, reserver_id, price_cents, fee_cents, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), s.ID, s.OwnerID, s.ReservedBy, s.PriceCents, feeCents, now,
		); err != nil {
			return translateDBErr(err)
		}

		spot = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return spot, nil
}

// CancelSpot performs the available -> cancelled conditional write,
// owner-only, rejected if the spot already expired.
//
// Returns:
//   - *domain.Spot: the updated row when the write is accepted.
//   - error: repository.ErrNotFound, ErrNotOwner or
//     ErrInvalidTransition.
func (r *SpotRepo) CancelSpot(
	ctx context.Context,
	id uuid.UUID,
	callerID string,
	now time.Time,
) (*domain.Spot, error) {
	const op = "postgres.SpotRepo.CancelSpot"

	var spot *domain.Spot

	err := r.inTx(ctx, func(ctx context.Context, db DB) error {
		row := db.QueryRow(ctx,
			`UPDATE spots
				SET status = 'cancelled', updated_at = $3
			 WHERE id = $1
				AND status = 'available'
				AND owner_id = $2
				AND expires_at > $3
			 RETURNING `+spotColumns,
			id, callerID, now,
		)

		s, err := scanSpot(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.classifyOwnerFailure(ctx, db, id, callerID)
			}
			return translateDBErr(err)
		}

		spot = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return spot, nil
}

func (r *SpotRepo) classifyOwnerFailure(
	ctx context.Context,
	db DB,
	id uuid.UUID,
	callerID string,
) error {
	var ownerID, status string

	err := db.QueryRow(ctx,
		`SELECT owner_id, status FROM spots WHERE id = $1`,
		id,
	).Scan(&ownerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return translateDBErr(err)
	}

	if ownerID != callerID {
		return repository.ErrNotOwner
	}

	return repository.ErrInvalidTransition
}

// ExpireDue retires every available spot whose ceiling has passed. The
// same conditional predicate as ReserveSpot means a reservation that
// landed between scan and write leaves the row out of the update set.
//
// Returns:
//   - []domain.Spot: the rows that were transitioned.
func (r *SpotRepo) ExpireDue(ctx context.Context, now time.Time) ([]domain.Spot, error) {
	const op = "postgres.SpotRepo.ExpireDue"

	db := r.handle()

	rows, err := db.Query(ctx,
		`UPDATE spots
			SET status = 'expired', updated_at = $1
		 WHERE status = 'available'
			AND expires_at <= $1
		 RETURNING `+spotColumns,
		now,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Spot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
