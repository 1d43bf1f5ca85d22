package db

import (
	"fmt"
	"testing"

	"github.com/doug-martin/goqu/v9"
)

func TestBuild_PreparedPlaceholders(t *testing.T) {
	ds := Dialect.From("patient").
		Select("id").
		Where(goqu.C("year_of_birth").Gte(1990), goqu.C("gender").Eq("MALE")).
		Order(goqu.I("full_name").Asc()).
		Prepared(true)

	sql, args, err := Build(ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `SELECT "id" FROM "patient" WHERE (("year_of_birth" >= $1) AND ("gender" = $2)) ORDER BY "full_name" ASC`
	if sql != want {
		t.Errorf("sql = %s\nwant  %s", sql, want)
	}
	if len(args) != 2 || fmt.Sprint(args[0]) != "1990" || args[1] != "MALE" {
		t.Errorf("unexpected args: %#v", args)
	}
}
