// Package db connects to PostgreSQL and performs the table operations of a load run.
//
// A run works on one *pgx.Conn obtained from StandardConnector, which retries
// transient connection failures. PgTableStore wraps each table load in a
// transaction: the table is recreated, filled with COPY, given its primary
// key and counted, and the transaction commits only if every step succeeded.
package db
