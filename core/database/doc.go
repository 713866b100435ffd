// Package database opens the optional media library database through GORM.
//
// MySQL is the production driver; sqlite is available for single-node and
// development setups. The connection pool is tuned once at connect time and
// the connection is verified with a bounded ping.
package database
