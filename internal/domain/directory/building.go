package directory

import (
	"strings"
	"time"

	"github.com/condominio/backend/internal/domain/shared"
)

// BuildingStatus represents the status of a building
type BuildingStatus string

const (
	BuildingStatusActive   BuildingStatus = "active"
	BuildingStatusInactive BuildingStatus = "inactive"
)

// Building represents a condominium managed by an administrator.
// It is the scoping root for units, invoices and payments.
type Building struct {
	shared.BaseAggregateRoot
	Name    string         `gorm:"type:varchar(200);not null;uniqueIndex"`
	Address string         `gorm:"type:text"`
	City    string         `gorm:"type:varchar(100)"`
	State   string         `gorm:"type:varchar(100)"`
	Status  BuildingStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Notes   string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Building) TableName() string {
	return "buildings"
}

// NewBuilding creates a new building
func NewBuilding(name, address, city, state string) (*Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Building name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Building name cannot exceed 200 characters")
	}

	b := &Building{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Address:           address,
		City:              city,
		State:             state,
		Status:            BuildingStatusActive,
	}

	return b, nil
}

// Update updates the building's basic information
func (b *Building) Update(name, address, city, state string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Building name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Building name cannot exceed 200 characters")
	}

	b.Name = name
	b.Address = address
	b.City = city
	b.State = state
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// Deactivate marks the building inactive; billing for it stops
func (b *Building) Deactivate() error {
	if b.Status == BuildingStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Building is already inactive")
	}
	b.Status = BuildingStatusInactive
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// Activate marks the building active
func (b *Building) Activate() error {
	if b.Status == BuildingStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Building is already active")
	}
	b.Status = BuildingStatusActive
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// IsActive returns true if the building is active
func (b *Building) IsActive() bool {
	return b.Status == BuildingStatusActive
}
