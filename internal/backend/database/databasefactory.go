package database

import (
	"fmt"
	"log"
)

func NewDatabase(databaseType, connectionString string) (store SongStore, err error) {
	switch databaseType {
	case "sqlite":
		store, err = NewSQLiteDatabase(connectionString)
		if err != nil {
			return nil, err
		}
	case "postgres":
		store, err = NewPostgresDatabase(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}

	// Ensure database schema exists (idempotent), important for in-memory SQLite
	log.Print("initializing database schema (ensuring tables exist)")
	if _, err = store.CreateDatabase(); err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return store, nil
}
