package ddl

// ColumnDef describes a single column of a table definition. Name is the
// unquoted column name; quoting happens at render time. Default is emitted as
// raw SQL.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (FQN, possibly dotted "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Logical column kinds produced by inference and understood by every
// backend's type mapping.
const (
	KindInt       = "int"
	KindFloat     = "float"
	KindBool      = "bool"
	KindDate      = "date"
	KindTimestamp = "timestamp"
	KindText      = "text"
)
