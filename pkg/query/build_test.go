package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evertheylen/sparrow/pkg/types"
)

func TestSelectBuild(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Stmt
		want  string
	}{
		{
			name:  "bare select",
			build: func() *Stmt { return Select("table_User").Build() },
			want:  "SELECT * FROM table_User",
		},
		{
			name: "select with field condition",
			build: func() *Stmt {
				return Select("table_User", C("uid", OpEq, Field("uid"))).Build()
			},
			want: "SELECT * FROM table_User WHERE (uid = %(uid)s)",
		},
		{
			name: "chained where is anded",
			build: func() *Stmt {
				return Select("table_User").
					Where(C("a", OpLt, Field("a"))).
					Where(C("b", OpNe, Field("b"))).
					Build()
			},
			want: "SELECT * FROM table_User WHERE (a < %(a)s) AND (b != %(b)s)",
		},
		{
			name: "order limit offset",
			build: func() *Stmt {
				return Select("table_User").
					OrderBy(Order{Column: "name", Dir: Desc}).
					Limit(10).
					Offset(5).
					Build()
			},
			want: "SELECT * FROM table_User ORDER BY name DESC LIMIT 10 OFFSET 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.build().Text())
		})
	}
}

func TestInsertBuild(t *testing.T) {
	stmt := Insert("table_User", []string{"name", "age"})
	assert.Equal(t,
		"INSERT INTO table_User (name, age) VALUES (%(name)s, %(age)s)",
		stmt.Text())
	assert.Empty(t, stmt.Data())
}

func TestInsertBuildReturning(t *testing.T) {
	stmt := Insert("table_User", []string{"name"}, "uid")
	assert.Equal(t,
		"INSERT INTO table_User (name) VALUES (%(name)s) RETURNING uid",
		stmt.Text())
}

func TestUpdateBuild(t *testing.T) {
	stmt := Update("table_User", []string{"name", "age"}, []string{"uid"})
	assert.Equal(t,
		"UPDATE table_User SET name = %(name)s, age = %(age)s WHERE uid = %(uid)s",
		stmt.Text())
}

func TestDeleteBuildCompositeKey(t *testing.T) {
	stmt := Delete("table_Follow", []string{"who", "whom"})
	assert.Equal(t,
		"DELETE FROM table_Follow WHERE who = %(who)s AND whom = %(whom)s",
		stmt.Text())
}

func TestStmtWithDataCopies(t *testing.T) {
	base := Insert("table_User", []string{"name"})
	a := base.WithData(types.Row{"name": "Evert"})
	b := base.WithData(types.Row{"name": "Flor"})

	assert.Empty(t, base.Data(), "compiled statement must stay reusable")
	assert.Equal(t, "Evert", a.Data()["name"])
	assert.Equal(t, "Flor", b.Data()["name"])
}

func TestRawKeepsText(t *testing.T) {
	stmt := Raw("SELECT * FROM table_User WHERE name = %(name)s", types.Row{"name": "Evert"})
	assert.Equal(t, "SELECT * FROM table_User WHERE name = %(name)s", stmt.Text())
	assert.Equal(t, "Evert", stmt.Data()["name"])
}
