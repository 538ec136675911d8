package main

import (
	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/repository"
)

// initStore wraps the connection pool in the transactional session store.
// Every batch gets its own repository.DatabaseSession from Store.InTx.
func initStore(db *database.DB) *repository.Store {
	return repository.NewStore(db.Conn)
}
