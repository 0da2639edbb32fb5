package store

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
)

// Users resolves identities. Username and email uniqueness is enforced
// with lightweight-transaction claims on dedicated lookup tables.
type Users struct {
	session *db.Session
}

func NewUsers(session *db.Session) *Users {
	return &Users{session: session}
}

// claim takes the value for userID with an LWT insert. On a lost race
// the result row carries the existing claim's columns next to
// [applied], so MapScanCAS absorbs either shape.
func (s *Users) claim(ctx context.Context, table, column, value string, userID uuid.UUID) (bool, error) {
	applied, err := s.session.Query(
		`INSERT INTO `+table+` (`+column+`, user_id) VALUES (?, ?) IF NOT EXISTS`,
		value, cqlUUID(userID)).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Users) release(ctx context.Context, table, column, value string) {
	_ = s.session.Query(`DELETE FROM `+table+` WHERE `+column+` = ?`, value).
		WithContext(ctx).Exec()
}

func (s *Users) Insert(ctx context.Context, u *model.User) error {
	applied, err := s.claim(ctx, "users_by_username", "username", u.Username, u.ID)
	if err != nil {
		return err
	}
	if !applied {
		return errs.Conflict("username already exists").WithDetail("username", u.Username)
	}

	applied, err = s.claim(ctx, "users_by_email", "email", u.Email, u.ID)
	if err == nil && !applied {
		err = errs.Conflict("email already exists").WithDetail("email", u.Email)
	}
	if err != nil {
		// Release the username claim so a retry can succeed.
		s.release(ctx, "users_by_username", "username", u.Username)
		return err
	}

	var profileID any
	if u.ProfileID != nil {
		profileID = cqlUUID(*u.ProfileID)
	}
	err = s.session.Query(`INSERT INTO users (id, username, email, profile_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		cqlUUID(u.ID), u.Username, u.Email, profileID, u.CreatedAt, u.UpdatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		// No user row landed, so neither claim may stay occupied.
		s.release(ctx, "users_by_username", "username", u.Username)
		s.release(ctx, "users_by_email", "email", u.Email)
		return err
	}
	return nil
}

func (s *Users) scanUser(q *gocql.Query, u *model.User) error {
	var id, profileID gocql.UUID
	err := q.Scan(&id, &u.Username, &u.Email, &profileID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return err
	}
	u.ID = uuid.UUID(id)
	if profileID != (gocql.UUID{}) {
		pid := uuid.UUID(profileID)
		u.ProfileID = &pid
	}
	return nil
}

func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	q := s.session.Query(`SELECT id, username, email, profile_id, created_at, updated_at FROM users WHERE id = ?`,
		cqlUUID(id)).WithContext(ctx)
	err := s.scanUser(q, &u)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIDs batch-resolves users with one IN query on the partition
// key. Unknown ids are simply absent from the result.
func (s *Users) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	out := make(map[uuid.UUID]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	iter := s.session.Query(`SELECT id, username, email, profile_id, created_at, updated_at FROM users WHERE id IN ?`,
		cqlUUIDs(ids)).
		WithContext(ctx).Iter()

	var id, profileID gocql.UUID
	var u model.User
	for iter.Scan(&id, &u.Username, &u.Email, &profileID, &u.CreatedAt, &u.UpdatedAt) {
		u.ID = uuid.UUID(id)
		u.ProfileID = nil
		if profileID != (gocql.UUID{}) {
			pid := uuid.UUID(profileID)
			u.ProfileID = &pid
		}
		out[u.ID] = u
		profileID = gocql.UUID{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Users) All(ctx context.Context) ([]model.User, error) {
	iter := s.session.Query(`SELECT id, username, email, profile_id, created_at, updated_at FROM users`).
		WithContext(ctx).Iter()

	var out []model.User
	var id, profileID gocql.UUID
	var u model.User
	for iter.Scan(&id, &u.Username, &u.Email, &profileID, &u.CreatedAt, &u.UpdatedAt) {
		u.ID = uuid.UUID(id)
		u.ProfileID = nil
		if profileID != (gocql.UUID{}) {
			pid := uuid.UUID(profileID)
			u.ProfileID = &pid
		}
		out = append(out, u)
		profileID = gocql.UUID{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the user row. A changed username or email goes
// through the same claim tables as Insert: the new value is claimed
// first, and the old claim is released only after the row update
// lands, so the lookup tables never point at a name the user does not
// hold.
func (s *Users) Update(ctx context.Context, u *model.User, prevUsername, prevEmail string) error {
	if u.Username != prevUsername {
		applied, err := s.claim(ctx, "users_by_username", "username", u.Username, u.ID)
		if err != nil {
			return err
		}
		if !applied {
			return errs.Conflict("username already exists").WithDetail("username", u.Username)
		}
	}
	if u.Email != prevEmail {
		applied, err := s.claim(ctx, "users_by_email", "email", u.Email, u.ID)
		if err == nil && !applied {
			err = errs.Conflict("email already exists").WithDetail("email", u.Email)
		}
		if err != nil {
			if u.Username != prevUsername {
				s.release(ctx, "users_by_username", "username", u.Username)
			}
			return err
		}
	}

	var profileID any
	if u.ProfileID != nil {
		profileID = cqlUUID(*u.ProfileID)
	}
	err := s.session.Query(`UPDATE users SET username = ?, email = ?, profile_id = ?, updated_at = ? WHERE id = ?`,
		u.Username, u.Email, profileID, u.UpdatedAt, cqlUUID(u.ID)).
		WithContext(ctx).Exec()
	if err != nil {
		if u.Username != prevUsername {
			s.release(ctx, "users_by_username", "username", u.Username)
		}
		if u.Email != prevEmail {
			s.release(ctx, "users_by_email", "email", u.Email)
		}
		return err
	}
	if u.Username != prevUsername {
		s.release(ctx, "users_by_username", "username", prevUsername)
	}
	if u.Email != prevEmail {
		s.release(ctx, "users_by_email", "email", prevEmail)
	}
	return nil
}

func (s *Users) Delete(ctx context.Context, u *model.User) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM users WHERE id = ?`, cqlUUID(u.ID))
	batch.Query(`DELETE FROM users_by_username WHERE username = ?`, u.Username)
	batch.Query(`DELETE FROM users_by_email WHERE email = ?`, u.Email)
	return s.session.ExecuteBatch(batch)
}
