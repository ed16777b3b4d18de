package repository

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

const usersTable = "users"

var userColumns = []string{"id", "name", "age"}

// Identifiers below come from userColumns or domain.SortKey.Column; every value is bound.

func withSearch(b sq.SelectBuilder, search string) sq.SelectBuilder {
	if search == "" {
		return b
	}
	return b.Where(sq.Like{"name": "%" + search + "%"})
}

func (d Dialect) listUsersSQL(q domain.ListQuery) (string, []any, error) {
	b := d.builder().Select(userColumns...).From(usersTable)
	return withSearch(b, q.Search).
		OrderBy(q.Sort.Column()).
		Suffix("LIMIT ? OFFSET ?", domain.PageSize, q.Offset()).
		ToSql()
}

func (d Dialect) countUsersSQL(search string) (string, []any, error) {
	b := d.builder().Select("COUNT(*)").From(usersTable)
	return withSearch(b, search).ToSql()
}

func (d Dialect) getUserSQL(id int64) (string, []any, error) {
	return d.builder().Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}

func (d Dialect) insertUserSQL(u *domain.User) (string, []any, error) {
	b := d.builder().Insert(usersTable).
		Columns("name", "age").
		Values(u.Name, u.Age)
	if d.Returning {
		b = b.Suffix("RETURNING id")
	}
	return b.ToSql()
}

func (d Dialect) insertUsersSQL(users []domain.User) (string, []any, error) {
	b := d.builder().Insert(usersTable).Columns("name", "age")
	for _, u := range users {
		b = b.Values(u.Name, u.Age)
	}
	return b.ToSql()
}

func (d Dialect) updateUserSQL(u *domain.User) (string, []any, error) {
	return d.builder().Update(usersTable).
		Set("name", u.Name).
		Set("age", u.Age).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
}

func (d Dialect) deleteUserSQL(id int64) (string, []any, error) {
	return d.builder().Delete(usersTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}
