// Package database opens the catalog database connection through GORM.
//
// Connect supports MySQL (shared catalogs) and SQLite (local single-user
// catalogs, and tests with ":memory:"). The connection is verified with a
// ping bounded by TimeoutSeconds.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let callers verify that an externally
// managed catalog has the columns the pipeline writes before any mutation.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "textures", []string{"remote_url"})
package database
