package buildingscope

import (
	"strings"

	"github.com/condominio/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuildingCallback provides GORM callback hooks for automatic building filtering
type BuildingCallback struct {
	buildingColumn string
	required     bool
}

// NewBuildingCallback creates a new building callback handler
func NewBuildingCallback(buildingColumn string, required bool) *BuildingCallback {
	if buildingColumn == "" {
		buildingColumn = "building_id"
	}
	return &BuildingCallback{
		buildingColumn: buildingColumn,
		required:     required,
	}
}

// RegisterCallbacks registers building callbacks with GORM
func (tc *BuildingCallback) RegisterCallbacks(db *gorm.DB) {
	// Register query callback - add building filter
	_ = db.Callback().Query().Before("gorm:query").Register("building:before_query", tc.beforeQuery)

	// Register update callback - ensure building filter
	_ = db.Callback().Update().Before("gorm:update").Register("building:before_update", tc.beforeUpdate)

	// Register delete callback - ensure building filter
	_ = db.Callback().Delete().Before("gorm:delete").Register("building:before_delete", tc.beforeDelete)

	// Register row query callback - add building filter
	_ = db.Callback().Row().Before("gorm:row").Register("building:before_row", tc.beforeQuery)

	// Note: Create callback is not registered because building_id should be set
	// explicitly by the application when creating entities
}

// beforeQuery adds building filter to SELECT queries
func (tc *BuildingCallback) beforeQuery(db *gorm.DB) {
	tc.addBuildingFilter(db)
}

// beforeUpdate adds building filter to UPDATE queries
func (tc *BuildingCallback) beforeUpdate(db *gorm.DB) {
	tc.addBuildingFilter(db)
}

// beforeDelete adds building filter to DELETE queries
func (tc *BuildingCallback) beforeDelete(db *gorm.DB) {
	tc.addBuildingFilter(db)
}

// addBuildingFilter adds building filtering to the query
func (tc *BuildingCallback) addBuildingFilter(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}

	// Skip if unscoped
	if db.Statement.Unscoped {
		return
	}

	// Models without the building column (buildings themselves, system
	// tables) are never scoped.
	if db.Statement.Schema == nil || db.Statement.Schema.LookUpField(tc.buildingColumn) == nil {
		return
	}

	// Skip if already has building condition
	if tc.hasBuildingCondition(db) {
		return
	}

	// Get building ID from context
	buildingID := logger.GetBuildingID(db.Statement.Context)
	if buildingID == "" {
		if tc.required {
			_ = db.AddError(ErrBuildingIDRequired)
		}
		return
	}

	// Validate UUID format
	if _, err := uuid.Parse(buildingID); err != nil {
		_ = db.AddError(ErrInvalidBuildingID)
		return
	}

	// Add building filter using GORM's clause
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: tc.buildingColumn},
				Value:  buildingID,
			},
		},
	})
}

// hasBuildingCondition checks if building_id condition is already present
func (tc *BuildingCallback) hasBuildingCondition(db *gorm.DB) bool {
	// Check if there's a manual scope applied via Unscoped
	if db.Statement.Unscoped {
		return true
	}

	// Check existing where clauses for building_id
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if tc.exprContainsBuilding(expr) {
					return true
				}
			}
		}
	}

	// Also check the built SQL if available
	sql := db.Statement.SQL.String()
	if sql != "" && strings.Contains(sql, tc.buildingColumn) {
		return true
	}

	return false
}

// exprContainsBuilding checks if an expression contains building_id column
func (tc *BuildingCallback) exprContainsBuilding(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == tc.buildingColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == tc.buildingColumn
		}
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if tc.exprContainsBuilding(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if tc.exprContainsBuilding(cond) {
				return true
			}
		}
	}
	return false
}

// EnableAutoBuildingFilter enables automatic building filtering on a GORM DB instance
// This registers callbacks that automatically add building_id filtering to all queries
func EnableAutoBuildingFilter(db *gorm.DB, required bool) {
	tc := NewBuildingCallback("building_id", required)
	tc.RegisterCallbacks(db)
}

// DisableAutoBuildingFilter removes the building callbacks (not recommended in production)
func DisableAutoBuildingFilter(db *gorm.DB) {
	// Note: GORM doesn't provide a clean way to remove callbacks
	// This is mainly for testing purposes
	_ = db.Callback().Query().Remove("building:before_query")
	_ = db.Callback().Update().Remove("building:before_update")
	_ = db.Callback().Delete().Remove("building:before_delete")
	_ = db.Callback().Row().Remove("building:before_row")
}
