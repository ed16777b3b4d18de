package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

// ListUsers returns one page of users and the number of users matching the
// search. Both statements share a single connection.
func (r *Repository) ListUsers(ctx context.Context, q domain.ListQuery) (res *domain.ListResult, err error) {
	ctx, done := r.obs.start(ctx, "list")
	defer done(&err)

	q = q.Normalize()
	query, args, err := r.dialect.listUsersSQL(q)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	countQuery, countArgs, err := r.dialect.countUsersSQL(q.Search)
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	users := []domain.User{}
	if err := conn.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("query users page %d: %w", q.Page, err)
	}

	var total int
	if err := conn.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	return &domain.ListResult{Users: users, Total: total}, nil
}

// Get single user
func (r *Repository) GetUser(ctx context.Context, id int64) (user *domain.User, err error) {
	ctx, done := r.obs.start(ctx, "get")
	defer done(&err)

	query, args, err := r.dialect.getUserSQL(id)
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	user = &domain.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user id=%d: %w", id, err)
	}
	return user, nil
}

// CreateUser inserts u and stores the assigned identifier back into u.ID.
func (r *Repository) CreateUser(ctx context.Context, u *domain.User) (err error) {
	ctx, done := r.obs.start(ctx, "create")
	defer done(&err)

	query, args, err := r.dialect.insertUserSQL(u)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if r.dialect.Returning {
		if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&u.ID); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, u *domain.User) (err error) {
	ctx, done := r.obs.start(ctx, "update")
	defer done(&err)

	query, args, err := r.dialect.updateUserSQL(u)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execAffectingOne(ctx, u.ID, query, args)
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, done := r.obs.start(ctx, "delete")
	defer done(&err)

	query, args, err := r.dialect.deleteUserSQL(id)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return r.execAffectingOne(ctx, id, query, args)
}

// execAffectingOne runs a statement keyed by id and reports ErrUserNotFound
// when it touched no row.
func (r *Repository) execAffectingOne(ctx context.Context, id int64, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec on user id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user id=%d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// InsertUsers adds users with a single multi-row INSERT. Identifiers are not
// read back.
func (r *Repository) InsertUsers(ctx context.Context, users []domain.User) (err error) {
	if len(users) == 0 {
		return nil
	}
	ctx, done := r.obs.start(ctx, "insert_batch")
	defer done(&err)

	query, args, err := r.dialect.insertUsersSQL(users)
	if err != nil {
		return fmt.Errorf("build batch insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d users: %w", len(users), err)
	}
	return nil
}

// TruncateUsers removes every row and resets the identifier sequence.
func (r *Repository) TruncateUsers(ctx context.Context) (err error) {
	ctx, done := r.obs.start(ctx, "truncate")
	defer done(&err)

	if _, err := r.db.ExecContext(ctx, r.dialect.Truncate); err != nil {
		return fmt.Errorf("truncate users: %w", err)
	}
	return nil
}
