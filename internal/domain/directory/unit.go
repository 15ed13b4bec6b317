package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/condominio/backend/internal/domain/shared"
)

// UnitStatus represents the status of a unit
type UnitStatus string

const (
	UnitStatusActive   UnitStatus = "active"
	UnitStatusInactive UnitStatus = "inactive"
)

// Unit represents a single apartment or office inside a building.
// The label is what owners recognize ("4-B", "PH-1") and is unique
// within its building.
type Unit struct {
	shared.BuildingAggregateRoot
	Label        string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_building_label,priority:2"`
	Floor        string          `gorm:"type:varchar(20)"`
	OwnerName    string          `gorm:"type:varchar(200)"`
	OwnerEmail   string          `gorm:"type:varchar(200)"`
	OwnerPhone   string          `gorm:"type:varchar(50)"`
	ResidentID   *uuid.UUID      `gorm:"type:uuid;index"`
	AliquotShare decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	Status       UnitStatus      `gorm:"type:varchar(20);not null;default:'active'"`
	Notes        string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Unit) TableName() string {
	return "units"
}

// NewUnit creates a new unit in a building
func NewUnit(buildingID uuid.UUID, label, floor, ownerName string) (*Unit, error) {
	if buildingID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Building ID is required")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit label cannot be empty")
	}
	if len(label) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit label cannot exceed 50 characters")
	}

	u := &Unit{
		BuildingAggregateRoot: shared.NewBuildingAggregateRoot(buildingID),
		Label:                 label,
		Floor:                 floor,
		OwnerName:             strings.TrimSpace(ownerName),
		AliquotShare:          decimal.Zero,
		Status:                UnitStatusActive,
	}

	return u, nil
}

// UpdateOwner updates the unit's owner contact information
func (u *Unit) UpdateOwner(name, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Owner name cannot be empty")
	}
	u.OwnerName = name
	u.OwnerEmail = strings.TrimSpace(email)
	u.OwnerPhone = strings.TrimSpace(phone)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// SetAliquotShare sets the unit's participation percentage in common
// expenses. Shares across a building should add up to 100 but that is
// enforced at the application layer, not per unit.
func (u *Unit) SetAliquotShare(share decimal.Decimal) error {
	if share.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Aliquot share cannot be negative")
	}
	if share.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("VALIDATION_ERROR", "Aliquot share cannot exceed 100")
	}
	u.AliquotShare = share
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// AssignResident links the unit to a resident user account
func (u *Unit) AssignResident(residentID uuid.UUID) error {
	if residentID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Resident ID is required")
	}
	u.ResidentID = &residentID
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// RemoveResident clears the resident link
func (u *Unit) RemoveResident() {
	u.ResidentID = nil
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// Deactivate marks the unit inactive. Inactive units keep their history
// but no longer receive new invoices.
func (u *Unit) Deactivate() error {
	if u.Status == UnitStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Unit is already inactive")
	}
	u.Status = UnitStatusInactive
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// Activate marks the unit active
func (u *Unit) Activate() error {
	if u.Status == UnitStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Unit is already active")
	}
	u.Status = UnitStatusActive
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// IsActive returns true if the unit is active
func (u *Unit) IsActive() bool {
	return u.Status == UnitStatusActive
}
