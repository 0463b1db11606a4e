package storage

import (
	"context"
	"strings"
	"testing"

	"etlgate/internal/dataset"
	"etlgate/internal/ddl"
)

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	RegisterDDL("ddltest", ddl.Dialect{
		Name:        "ddltest",
		Quote:       func(id string) string { return "`" + id + "`" },
		MapType:     strings.ToUpper,
		IfNotExists: true,
	})

	f := dataset.FromRecords([]string{"id", "name"}, []dataset.Record{{"id": int64(1), "name": "a"}})
	repo := &fakeRepo{}
	cfg := Config{Kind: "ddltest", Table: "events", KeyColumns: []string{"id"}}
	if err := EnsureTable(context.Background(), repo, cfg, f, map[string]string{"name": "float"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(repo.execs) != 1 {
		t.Fatalf("execs = %v", repo.execs)
	}
	want := "CREATE TABLE IF NOT EXISTS `events` (\n  `id` INT NOT NULL,\n  `name` FLOAT,\n  PRIMARY KEY (`id`)\n);"
	if repo.execs[0] != want {
		t.Fatalf("got:\n%s\nwant:\n%s", repo.execs[0], want)
	}
}

func TestEnsureTable_UnknownDialect(t *testing.T) {
	t.Parallel()

	err := EnsureTable(context.Background(), &fakeRepo{}, Config{Kind: "nope", Table: "t"}, dataset.New("a"), nil)
	if err == nil || !strings.Contains(err.Error(), `no DDL dialect registered for storage.kind="nope"`) {
		t.Fatalf("err = %v", err)
	}
}
