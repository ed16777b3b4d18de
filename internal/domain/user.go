package domain

type User struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"notblank"`
	Age  int    `db:"age" json:"age"`
}
