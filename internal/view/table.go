package view

import (
	"strconv"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

// Column is one rendered table column.
type Column struct {
	Header string
	Value  func(domain.User) string
}

// UserColumns is the fixed column set of the users table, in display order.
var UserColumns = []Column{
	{Header: "Id", Value: func(u domain.User) string { return strconv.FormatInt(u.ID, 10) }},
	{Header: "Name", Value: func(u domain.User) string { return u.Name }},
	{Header: "Age", Value: func(u domain.User) string { return strconv.Itoa(u.Age) }},
}

type Table struct {
	Headers []string
	Rows    []Row
}

type Row struct {
	ID    int64
	Cells []string
}

func UserTable(users []domain.User) Table {
	t := Table{
		Headers: make([]string, 0, len(UserColumns)),
		Rows:    make([]Row, 0, len(users)),
	}
	for _, c := range UserColumns {
		t.Headers = append(t.Headers, c.Header)
	}
	for _, u := range users {
		row := Row{ID: u.ID, Cells: make([]string, 0, len(UserColumns))}
		for _, c := range UserColumns {
			row.Cells = append(row.Cells, c.Value(u))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
