// Package ddl is a small, backend-agnostic model for CREATE TABLE statements:
// a TableDef, a Dialect that says how a backend quotes names and guards
// against an existing table, and inference of column kinds from a frame.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect describes how a backend renders DDL.
type Dialect struct {
	// Name is used in error messages, e.g. "postgres".
	Name string

	// Quote quotes one identifier segment. Nil leaves names as-is.
	Quote func(ident string) string

	// MapType turns a logical kind (KindInt, ...) into a column type.
	MapType func(kind string) string

	// IfNotExists renders "CREATE TABLE IF NOT EXISTS <t> (...)". When false
	// and Guard is set, Guard wraps the plain CREATE TABLE statement instead.
	IfNotExists bool
	Guard       func(quotedFQN, stmt string) string
}

// QuoteFQN quotes every dotted segment of fqn with d.Quote.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}

func (d Dialect) quote(id string) string {
	if d.Quote == nil {
		return id
	}
	return d.Quote(id)
}

// BuildCreateTableSQL renders a CREATE TABLE statement from t:
//
//	CREATE TABLE [IF NOT EXISTS] <FQN> (
//	  <name> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...,
//	  PRIMARY KEY (<pk-cols>)
//	);
//
// Primary-key columns are always NOT NULL.
func (d Dialect) BuildCreateTableSQL(t TableDef) (string, error) {
	prefix := "ddl"
	if d.Name != "" {
		prefix = d.Name + " ddl"
	}
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", prefix)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", prefix)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", prefix, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", prefix, name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())
		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	head := "CREATE TABLE "
	if d.IfNotExists {
		head += "IF NOT EXISTS "
	}
	stmt := fmt.Sprintf("%s%s (\n  %s\n);", head, quoted, strings.Join(cols, ",\n  "))
	if !d.IfNotExists && d.Guard != nil {
		stmt = d.Guard(quoted, stmt)
	}
	return stmt, nil
}

// BuildCreateTableSQL renders t with no quoting and no existence guard.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Dialect{}.BuildCreateTableSQL(t)
}
