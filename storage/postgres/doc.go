// Package postgres implements the storage repositories on PostgreSQL with
// lib/pq. Records are bulk loaded with COPY; pages and usage are JSONB.
package postgres
