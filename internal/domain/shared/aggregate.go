package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version       int           `gorm:"not null;default:1"`
	loadedVersion int           `gorm:"-"`
	domainEvents  []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// MarkVersionLoaded records the current version as the one held in storage.
// Repositories call it when hydrating an aggregate and after a successful
// locked save; mutations may then bump Version freely in memory without
// moving the optimistic-lock predicate.
func (a *BaseAggregateRoot) MarkVersionLoaded() {
	a.loadedVersion = a.Version
}

// LoadedVersion returns the version the aggregate was last read from or
// written to storage with. Zero means the aggregate was never persisted.
func (a *BaseAggregateRoot) LoadedVersion() int {
	return a.loadedVersion
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// BuildingAggregateRoot extends BaseAggregateRoot with building scoping.
// An administrator account manages several buildings; every billing aggregate
// belongs to exactly one of them and all repository queries filter by it.
type BuildingAggregateRoot struct {
	BaseAggregateRoot
	BuildingID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid;index"`
}

// NewBuildingAggregateRoot creates a new building-scoped aggregate root
func NewBuildingAggregateRoot(buildingID uuid.UUID) BuildingAggregateRoot {
	return BuildingAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		BuildingID:        buildingID,
	}
}

// NewBuildingAggregateRootWithCreator creates a new building-scoped aggregate root with creator info
func NewBuildingAggregateRootWithCreator(buildingID, createdBy uuid.UUID) BuildingAggregateRoot {
	return BuildingAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		BuildingID:        buildingID,
		CreatedBy:         &createdBy,
	}
}

// SetCreatedBy sets the creator user ID
func (b *BuildingAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	b.CreatedBy = &userID
}

// GetCreatedBy returns the creator user ID
func (b *BuildingAggregateRoot) GetCreatedBy() *uuid.UUID {
	return b.CreatedBy
}
