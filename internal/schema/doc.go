// Package schema infers PostgreSQL table definitions for vendor CSV files.
//
// The vendor publishes an INDICATORS table describing every column of every
// other table: its unit type and whether it belongs to the primary key. A
// Catalog built from that file maps (table, column) pairs to SQL types and
// tables to ordered primary keys. Columns the catalog does not describe
// default to TEXT.
package schema
