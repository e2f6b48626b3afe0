package pgstore

import "embed"

// Migrations holds the goose migrations creating every table used by the package.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations to pass to pg.Migrate.
const MigrationsDir = "migrations"

// Default table names created by Migrations.
const (
	FeaturesTable    = "flagkit_features"
	PropertiesTable  = "flagkit_properties"
	AuditEventsTable = "flagkit_audit_events"
)
