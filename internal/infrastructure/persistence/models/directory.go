package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/condominio/backend/internal/domain/directory"
	"github.com/condominio/backend/internal/domain/shared"
)

// BuildingModel is the persistence model for the Building aggregate root.
type BuildingModel struct {
	AggregateModel
	Name    string                   `gorm:"type:varchar(200);not null;uniqueIndex"`
	Address string                   `gorm:"type:text"`
	City    string                   `gorm:"type:varchar(100)"`
	State   string                   `gorm:"type:varchar(100)"`
	Status  directory.BuildingStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Notes   string                   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the persistence model to a domain Building entity.
func (m *BuildingModel) ToDomain() *directory.Building {
	return &directory.Building{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Name:    m.Name,
		Address: m.Address,
		City:    m.City,
		State:   m.State,
		Status:  m.Status,
		Notes:   m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Building entity.
func (m *BuildingModel) FromDomain(b *directory.Building) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Address = b.Address
	m.City = b.City
	m.State = b.State
	m.Status = b.Status
	m.Notes = b.Notes
}

// BuildingModelFromDomain creates a new persistence model from a domain Building.
func BuildingModelFromDomain(b *directory.Building) *BuildingModel {
	m := &BuildingModel{}
	m.FromDomain(b)
	return m
}

// UnitModel is the persistence model for the Unit aggregate root.
type UnitModel struct {
	BuildingAggregateModel
	Label        string               `gorm:"type:varchar(50);not null;index"`
	Floor        string               `gorm:"type:varchar(20)"`
	OwnerName    string               `gorm:"type:varchar(200)"`
	OwnerEmail   string               `gorm:"type:varchar(200)"`
	OwnerPhone   string               `gorm:"type:varchar(50)"`
	ResidentID   *uuid.UUID           `gorm:"type:uuid;index"`
	AliquotShare decimal.Decimal      `gorm:"type:decimal(8,4);not null;default:0"`
	Status       directory.UnitStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Notes        string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit entity.
func (m *UnitModel) ToDomain() *directory.Unit {
	u := &directory.Unit{
		Label:        m.Label,
		Floor:        m.Floor,
		OwnerName:    m.OwnerName,
		OwnerEmail:   m.OwnerEmail,
		OwnerPhone:   m.OwnerPhone,
		ResidentID:   m.ResidentID,
		AliquotShare: m.AliquotShare,
		Status:       m.Status,
		Notes:        m.Notes,
	}
	m.PopulateBuildingAggregateRoot(&u.BuildingAggregateRoot)
	return u
}

// FromDomain populates the persistence model from a domain Unit entity.
func (m *UnitModel) FromDomain(u *directory.Unit) {
	m.FromDomainBuildingAggregateRoot(u.BuildingAggregateRoot)
	m.Label = u.Label
	m.Floor = u.Floor
	m.OwnerName = u.OwnerName
	m.OwnerEmail = u.OwnerEmail
	m.OwnerPhone = u.OwnerPhone
	m.ResidentID = u.ResidentID
	m.AliquotShare = u.AliquotShare
	m.Status = u.Status
	m.Notes = u.Notes
}

// UnitModelFromDomain creates a new persistence model from a domain Unit.
func UnitModelFromDomain(u *directory.Unit) *UnitModel {
	m := &UnitModel{}
	m.FromDomain(u)
	return m
}
