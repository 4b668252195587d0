// Package database connects to the access-log backend.
//
// Two backends are supported:
//
//   - SQLite through modernc.org/sqlite, for single-node deployments
//   - PostgreSQL through a pgx connection pool
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "webroot.db",
//	    Tables: webroot.Tables{AccessLog: "webroot_access_log"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// Open pings, migrates and validates the schema. Connect only opens the
// connection, which is what read-only commands use.
package database
