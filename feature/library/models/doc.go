// Package models defines the library records and audit report types.
package models
