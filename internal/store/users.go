package store

import (
	"context"
	"fmt"
	"slices"
)

var (
	userColumns = NewColumns(slices.Concat(
		[]Column[User]{
			field("user_id", func(u *User) *string { return &u.UserID }),
			field("full_name", func(u *User) *string { return &u.FullName }),
			field("email", func(u *User) *string { return &u.Email }),
			field("is_disabled", func(u *User) *bool { return &u.IsDisabled }),
			arrayField("scopes", func(u *User) *[]string { return &u.Scopes }),
			field("failed_attempts", func(u *User) *int { return &u.FailedAttempts }),
		},
		auditColumns(func(u *User) *Audit { return &u.Audit }),
	)...)

	userHash = field("hashed_password", func(u *UserWithHash) *string { return &u.HashedPassword })
	userOf   = func(u *UserWithHash) *User { return &u.User }

	// user_id leads userColumns and is the key, so the write list drops it.
	users = newTable("users", []string{"user_id"},
		Embed(userColumns, userOf, userHash),
		NewColumns(append(lift(userColumns.descriptors()[1:], userOf), userHash)...),
		Embed(userColumns, userOf, userHash),
	)
)

var (
	selectUsers            = fmt.Sprintf("SELECT %s FROM users ORDER BY full_name", userColumns.Names())
	incrementFailedAttempt = fmt.Sprintf("UPDATE users SET failed_attempts = failed_attempts + 1 WHERE user_id = $1 RETURNING %s", users.public.Names())
)

const resetFailedAttempts = "UPDATE users SET failed_attempts = 0, updated_at = $2 WHERE user_id = $1"

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return queryMany(ctx, s.DB, "list_users", userColumns, selectUsers)
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, bool, error) {
	u, ok, err := s.GetUserWithHash(ctx, userID)
	return u.User, ok, err
}

// GetUserWithHash includes the password hash, for login only.
func (s *Store) GetUserWithHash(ctx context.Context, userID string) (UserWithHash, bool, error) {
	return users.get(ctx, s.DB, userID)
}

func (s *Store) CreateUser(ctx context.Context, u UserWithHash) (User, error) {
	u.stamp(u.CreatedBy)
	rec, err := users.create(ctx, s.DB, &u)
	return rec.User, err
}

func (s *Store) UpdateUser(ctx context.Context, userID string, u UserUpdate) (User, bool, error) {
	if err := u.Validate(); err != nil {
		return User{}, false, err
	}
	rec, ok, err := users.update(ctx, s.DB, func(usr *UserWithHash) error {
		u.Apply(usr)
		return nil
	}, userID)
	return rec.User, ok, err
}

func (s *Store) DeleteUser(ctx context.Context, userID string) (User, bool, error) {
	rec, ok, err := users.remove(ctx, s.DB, userID)
	return rec.User, ok, err
}

// IncreaseFailedAttempts bumps the counter in one statement and returns the
// updated row.
func (s *Store) IncreaseFailedAttempts(ctx context.Context, userID string) (UserWithHash, bool, error) {
	return queryOne(ctx, s.DB, "increase_failed_attempts", users.public, incrementFailedAttempt, userID)
}

func (s *Store) ResetFailedAttempts(ctx context.Context, userID string) error {
	return execVoid(ctx, s.DB, "reset_failed_attempts", resetFailedAttempts, userID, now())
}
