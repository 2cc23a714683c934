package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
	user_id,
	name,
	age,
	profession,
	COALESCE(interests, '{}'),
	looking_for,
	COALESCE(profile_photo, ''),
	show_photo,
	show_profession,
	created_at,
	updated_at`

func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	if userID == uuid.Nil {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+profileColumns+`
FROM profiles
WHERE user_id = $1
`, userID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) GetMany(ctx context.Context, userIDs []uuid.UUID) ([]model.Profile, error) {
	if len(userIDs) == 0 {
		return []model.Profile{}, nil
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+profileColumns+`
FROM profiles
WHERE user_id = ANY($1)
`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows, len(userIDs))
}

// ListCandidates returns every profile inside the age window that is
// not on the exclusion list. Interest filtering happens in Go, where
// the intersection rule lives.
func (r *ProfileRepo) ListCandidates(ctx context.Context, selfID uuid.UUID, minAge, maxAge int, exclude []uuid.UUID, limit int) ([]model.Profile, error) {
	if selfID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []model.Profile{}, nil
	}

	excluded := append([]uuid.UUID{selfID}, exclude...)
	rows, err := r.pool.Query(ctx, `
SELECT`+profileColumns+`
FROM profiles
WHERE age BETWEEN $2 AND $3
	AND NOT (user_id = ANY($4))
	AND user_id <> $1
ORDER BY created_at
LIMIT $5
`, selfID, minAge, maxAge, excluded, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows, limit)
}

func (r *ProfileRepo) Update(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.Profile, error) {
	if userID == uuid.Nil {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE profiles
SET
	name = COALESCE($2, name),
	age = COALESCE($3, age),
	profession = COALESCE($4, profession),
	interests = COALESCE($5, interests),
	looking_for = COALESCE($6, looking_for),
	show_photo = COALESCE($7, show_photo),
	show_profession = COALESCE($8, show_profession),
	updated_at = NOW()
WHERE user_id = $1
RETURNING`+profileColumns+`
`, userID, update.Name, update.Age, update.Profession, update.Interests,
		update.LookingFor, update.ShowPhoto, update.ShowProfession)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) SetPhoto(ctx context.Context, userID uuid.UUID, photoURL string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE profiles
SET profile_photo = $2, updated_at = NOW()
WHERE user_id = $1
`, userID, photoURL)
	if err != nil {
		return fmt.Errorf("set profile photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.UserID,
		&p.Name,
		&p.Age,
		&p.Profession,
		&p.Interests,
		&p.LookingFor,
		&p.ProfilePhoto,
		&p.ShowPhoto,
		&p.ShowProfession,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectProfiles(rows pgx.Rows, capacityHint int) ([]model.Profile, error) {
	items := make([]model.Profile, 0, capacityHint)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		items = append(items, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate profiles: %w", rows.Err())
	}
	return items, nil
}
