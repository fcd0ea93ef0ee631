// Package database provides connection management, a model registry, table
// initialization, SQL data seeding, configuration types, logging, health
// checks, and error classification built on top of Bun.
package database
