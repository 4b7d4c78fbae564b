//go:build integration

// Package testdb provides helpers for tests that need a real postgres
// database.
//
// Tests run inside a transaction that is rolled back when they finish, so
// they can run in parallel and leave no rows behind:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t) // skips when no database is configured
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewQueueStore(tx, nil)
//	        ...
//	    })
//	}
//
// The database is named by PHRASIFY_TEST_DATABASE_URL, falling back to
// DATABASE_URL. The queue schema is migrated up before it is handed out.
package testdb
