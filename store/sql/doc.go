// Package sqlstore keeps the ingestion journal in a SQL database through bun.
// SQLite and Postgres are supported.
package sqlstore
