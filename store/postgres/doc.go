// Package postgres implements store.Store on PostgreSQL through
// database/sql and the pgx stdlib driver.
//
// Every query is scoped by shop. Version rotation runs as one CTE statement
// so it stays atomic behind transaction-pooling proxies; if that statement
// fails the store logs a warning and falls back to hide-then-insert.
package postgres
