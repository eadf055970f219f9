// Package all registers every storage backend with the factory, so one
// blank import gives a command the full -store selection.
package all

import (
	_ "icsv/internal/storage/mssql"
	_ "icsv/internal/storage/postgres"
	_ "icsv/internal/storage/sqlite"
)
