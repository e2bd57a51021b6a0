package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/profile"
)

const profileColumns = "id, name, email, role, password_hash, created_at, updated_at, last_login"

type profileRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func toProfileRow(p profile.Profile) profileRow {
	hash := p.PasswordHash
	if hash == nil {
		hash = []byte{}
	}
	return profileRow{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		PasswordHash: hash,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
		LastLogin:    nullTime(p.LastLogin),
	}
}

func (r profileRow) profile() profile.Profile {
	return profile.Profile{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    fromNullTime(r.LastLogin),
	}
}

type profileRepository struct {
	exec core.DBExecutor
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(exec core.DBExecutor) *profileRepository {
	return &profileRepository{exec: exec}
}

func (repo *profileRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q := "SELECT EXISTS (SELECT 1 FROM profiles WHERE email = ?"
	args := []interface{}{email}
	var excluded []string
	for _, id := range excludedIDs {
		if validIDs(id) {
			excluded = append(excluded, id)
		}
	}
	if len(excluded) > 0 {
		q += " AND id NOT IN (?)"
		args = append(args, excluded)
	}
	q += ")"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	var exists bool
	if err = repo.exec.GetContext(ctx, &exists, repo.exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return profile.ErrEmailExists
	}
	return nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	p.ID = newIDFunc()
	q, args, err := repo.exec.BindNamed(
		"INSERT INTO profiles ("+profileColumns+") "+
			"VALUES (:id, :name, :email, :role, :password_hash, :created_at, :updated_at, :last_login) "+
			"RETURNING "+profileColumns,
		toProfileRow(p),
	)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}

	var row profileRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		if pqCode(err) == uniqueViolation {
			return profile.Profile{}, profile.ErrEmailExists
		}
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return row.profile(), nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.Profile, error) {
	q := "SELECT " + profileColumns + " FROM profiles WHERE TRUE"
	var args []interface{}

	if filter != nil {
		// profiles with Name or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q += " AND (name ILIKE ? OR email ILIKE ?)"
			args = append(args, val, val)
		}
		if len(filter.Roles) > 0 {
			q += " AND role IN (?)"
			args = append(args, filter.Roles)
		}
		if !filter.CreatedFrom.IsZero() {
			q += " AND created_at >= ?"
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			q += " AND created_at <= ?"
			args = append(args, filter.CreatedTo.UTC())
		}
	}
	q += core.OrderByClause(ordering, "created_at DESC", "name", "email", "role", "created_at", "last_login")

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	var rows []profileRow
	if err = repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}

	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.profile())
	}
	return profiles, nil
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	if !validIDs(id) {
		return profile.Profile{}, profile.ErrNotFound
	}
	var row profileRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id); err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "finding profile by ID")
	}
	return row.profile(), nil
}

func (repo *profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	var row profileRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+profileColumns+" FROM profiles WHERE email = $1", email); err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "finding profile by email")
	}
	return row.profile(), nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if !validIDs(p.ID) {
		return profile.Profile{}, profile.ErrNotFound
	}
	q, args, err := repo.exec.BindNamed(
		"UPDATE profiles SET name = :name, email = :email, role = :role, password_hash = :password_hash, "+
			"updated_at = :updated_at, last_login = :last_login WHERE id = :id RETURNING "+profileColumns,
		toProfileRow(p),
	)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}

	var row profileRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		if pqCode(err) == uniqueViolation {
			return profile.Profile{}, profile.ErrEmailExists
		}
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "updating profile")
	}
	return row.profile(), nil
}

func (repo *profileRepository) DeleteProfilesByID(ctx context.Context, ids []string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validIDs(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In("DELETE FROM profiles WHERE id IN (?)", valid)
	if err != nil {
		return 0, errors.Wrap(err, "deleting profiles")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting profiles")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting profiles")
	}
	return int(n), nil
}
