// Package buildingscope provides per-building database scoping for GORM.
//
// This package implements automatic building_id filtering to prevent cross-building
// data access at the repository layer. It extracts the building ID from the request
// context and automatically applies WHERE building_id = ? conditions to all queries.
//
// Usage:
//
//	db := buildingscope.NewBuildingDB(gormDB)
//	scopedDB := db.WithContext(ctx) // automatically applies building filtering
//	scopedDB.Find(&invoices) // WHERE building_id = 'xxx' is auto-added
package buildingscope

import (
	"context"
	"errors"

	"github.com/condominio/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBuildingIDRequired is returned when building_id is required but not found
var ErrBuildingIDRequired = errors.New("building_id is required but not found in context")

// ErrInvalidBuildingID is returned when building_id format is invalid
var ErrInvalidBuildingID = errors.New("invalid building_id format")

// BuildingScope applies building filtering to GORM queries
func BuildingScope(buildingID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("building_id = ?", buildingID)
	}
}

// BuildingScopeString applies building filtering using string building ID
func BuildingScopeString(buildingID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("building_id = ?", buildingID)
	}
}

// BuildingCreateScope sets building_id on create operations
func BuildingCreateScope(buildingID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Set("building_id", buildingID)
	}
}

// BuildingDB wraps GORM DB with automatic building scoping
type BuildingDB struct {
	db           *gorm.DB
	buildingColumn string
	required     bool
}

// Config holds configuration for BuildingDB
type Config struct {
	// BuildingColumn is the name of the building ID column (default: "building_id")
	BuildingColumn string
	// Required determines if building_id is mandatory (default: true)
	Required bool
}

// DefaultConfig returns default BuildingDB configuration
func DefaultConfig() Config {
	return Config{
		BuildingColumn: "building_id",
		Required:       true,
	}
}

// NewBuildingDB creates a new BuildingDB with default configuration
func NewBuildingDB(db *gorm.DB) *BuildingDB {
	return NewBuildingDBWithConfig(db, DefaultConfig())
}

// NewBuildingDBWithConfig creates a new BuildingDB with custom configuration
func NewBuildingDBWithConfig(db *gorm.DB, cfg Config) *BuildingDB {
	if cfg.BuildingColumn == "" {
		cfg.BuildingColumn = "building_id"
	}
	return &BuildingDB{
		db:           db,
		buildingColumn: cfg.BuildingColumn,
		required:     cfg.Required,
	}
}

// DB returns the underlying GORM DB without building scoping
// Use with caution - this bypasses building isolation
func (t *BuildingDB) DB() *gorm.DB {
	return t.db
}

// WithContext returns a GORM DB scoped to the building from context.
// It extracts building_id from the context (set by building middleware)
// and automatically applies the building filter to all queries.
//
// If building_id is not found in context and Required is true, it returns
// a DB that will error on any operation.
func (t *BuildingDB) WithContext(ctx context.Context) *gorm.DB {
	buildingID := logger.GetBuildingID(ctx)

	if buildingID == "" {
		if t.required {
			// Return a DB that will error on execution
			db := t.db.WithContext(ctx)
			_ = db.AddError(ErrBuildingIDRequired)
			return db
		}
		// If not required, return DB without building scope
		return t.db.WithContext(ctx)
	}

	// Validate UUID format
	if _, err := uuid.Parse(buildingID); err != nil {
		db := t.db.WithContext(ctx)
		_ = db.AddError(ErrInvalidBuildingID)
		return db
	}

	// Apply building scope
	return t.db.WithContext(ctx).Scopes(BuildingScopeString(buildingID))
}

// WithBuilding returns a GORM DB scoped to a specific building ID.
// Use this when you have the building ID directly rather than from context.
func (t *BuildingDB) WithBuilding(buildingID uuid.UUID) *gorm.DB {
	if buildingID == uuid.Nil {
		if t.required {
			db := t.db
			_ = db.AddError(ErrBuildingIDRequired)
			return db
		}
		return t.db
	}
	return t.db.Scopes(BuildingScope(buildingID))
}

// WithBuildingString returns a GORM DB scoped to a specific building ID string.
func (t *BuildingDB) WithBuildingString(buildingID string) *gorm.DB {
	if buildingID == "" {
		if t.required {
			db := t.db
			_ = db.AddError(ErrBuildingIDRequired)
			return db
		}
		return t.db
	}

	// Validate UUID format
	if _, err := uuid.Parse(buildingID); err != nil {
		db := t.db
		_ = db.AddError(ErrInvalidBuildingID)
		return db
	}

	return t.db.Scopes(BuildingScopeString(buildingID))
}

// ForBuilding creates a new BuildingDB instance scoped to a specific context.
// This is useful for creating a scoped DB that can be passed around.
func (t *BuildingDB) ForBuilding(ctx context.Context, buildingID uuid.UUID) *gorm.DB {
	return t.db.WithContext(ctx).Scopes(BuildingScope(buildingID))
}

// Transaction executes a function within a database transaction with building scope
func (t *BuildingDB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	buildingID := logger.GetBuildingID(ctx)

	if buildingID == "" && t.required {
		return ErrBuildingIDRequired
	}

	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if buildingID != "" {
			tx = tx.Scopes(BuildingScopeString(buildingID))
		}
		return fn(tx)
	})
}

// Unscoped returns the underlying DB without any building scoping.
// WARNING: Use this with extreme caution as it bypasses building isolation.
// This should only be used for system-level operations or migrations.
func (t *BuildingDB) Unscoped() *gorm.DB {
	return t.db
}

// SetRequired changes whether building_id is required
func (t *BuildingDB) SetRequired(required bool) *BuildingDB {
	return &BuildingDB{
		db:           t.db,
		buildingColumn: t.buildingColumn,
		required:     required,
	}
}
