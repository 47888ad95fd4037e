package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/curbline/curbline/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetSpot retrieves a spot by its ID.
//
// Returns:
//   - *domain.Spot: the spot when found.
//   - error: repository.ErrNotFound if the spot is not found.
func (r *QueryRepo) GetSpot(ctx context.Context, id uuid.UUID) (*domain.Spot, error) {
	const op = "postgres.QueryRepo.GetSpot"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+spotColumns+` FROM spots WHERE id = $1`,
		id,
	)

	s, err := scanSpot(row)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return s, nil
}

// ListAvailable lists available spots matching the filter, ordered by
// availability time. The predicate is applied in the query, not by
// scanning the table client-side.
func (r *QueryRepo) ListAvailable(
	ctx context.Context,
	f domain.SpotFilter,
	limit, offset int,
) ([]domain.Spot, error) {
	const op = "postgres.QueryRepo.ListAvailable"

	db := r.handle()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + spotColumns + ` FROM spots WHERE status = 'available'`)

	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.City != "" {
		sb.WriteString(` AND lower(city) = lower(` + arg(f.City) + `)`)
	}
	if f.Category != "" {
		sb.WriteString(` AND category = ` + arg(string(f.Category)))
	}
	if f.MaxPriceCents > 0 {
		sb.WriteString(` AND price_cents <= ` + arg(f.MaxPriceCents))
	}

	sb.WriteString(` ORDER BY available_at`)
	sb.WriteString(` LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset))

	rows, err := db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Spot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListByUser lists the spots a user has posted and the spots they have
// reserved, newest first in each set.
func (r *QueryRepo) ListByUser(
	ctx context.Context,
	userID string,
) (posted, reserved []domain.Spot, err error) {
	const op = "postgres.QueryRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+spotColumns+`
		 FROM spots
		 WHERE owner_id = $1 OR reserved_by = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		if s.OwnerID == userID {
			posted = append(posted, *s)
		}
		if s.ReservedBy == userID {
			reserved = append(reserved, *s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	return posted, reserved, nil
}

// GetHandoffBySpot retrieves the handoff record for a completed spot.
//
// Returns:
//   - *domain.Handoff: the handoff when found.
//   - error: repository.ErrNotFound if the spot has no handoff yet.
func (r *QueryRepo) GetHandoffBySpot(ctx context.Context, spotID uuid.UUID) (*domain.Handoff, error) {
	const op = "postgres.QueryRepo.GetHandoffBySpot"

	db := r.handle()

	var h domain.Handoff
	err := db.QueryRow(ctx,
		`SELECT id, spot_id, owner_id, reserver_id, price_cents, fee_cents, created_at
		 FROM handoffs
		 WHERE spot_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		spotID,
	).Scan(&h.ID, &h.SpotID, &h.OwnerID, &h.ReserverID, &h.PriceCents, &h.FeeCents, &h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &h, nil
}
