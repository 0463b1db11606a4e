// Package all enables every built-in storage backend. Import it for its side
// effects from the wiring layer:
//
//	import _ "etlgate/internal/storage/all"
//
// after which storage.New and storage.EnsureTable accept the kinds "mssql",
// "mysql", "postgres" and "sqlite".
package all

import (
	_ "etlgate/internal/storage/mssql"
	_ "etlgate/internal/storage/mysql"
	_ "etlgate/internal/storage/postgres"
	_ "etlgate/internal/storage/sqlite"
)
