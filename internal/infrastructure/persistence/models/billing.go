package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/condominio/backend/internal/domain/billing"
	"github.com/condominio/backend/internal/domain/shared"
	"github.com/condominio/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The period column stores the canonical YYYY-MM form so range filters can
// compare it lexicographically. Uniqueness of (unit_id, period) for
// non-cancelled invoices is enforced by a partial index in the migrations.
type InvoiceModel struct {
	BuildingAggregateModel
	UnitID            uuid.UUID              `gorm:"type:uuid;not null;index"`
	UnitLabel         string                 `gorm:"type:varchar(50);not null"`
	Period            valueobject.Period     `gorm:"type:varchar(7);not null;index"`
	TotalAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	OutstandingAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null;index"`
	Status            billing.InvoiceStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Description       string                 `gorm:"type:text"`
	DueDate           *time.Time             `gorm:"index"`
	PaymentRecords    billing.PaymentRecords `gorm:"type:jsonb;default:'[]'"`
	PaidAt            *time.Time
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		BuildingAggregateRoot: shared.BuildingAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			BuildingID: m.BuildingID,
			CreatedBy:  m.CreatedBy,
		},
		UnitID:            m.UnitID,
		UnitLabel:         m.UnitLabel,
		Period:            m.Period,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		OutstandingAmount: m.OutstandingAmount,
		Status:            m.Status,
		Description:       m.Description,
		DueDate:           m.DueDate,
		PaymentRecords:    m.PaymentRecords,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	inv.MarkVersionLoaded()
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainBuildingAggregateRoot(inv.BuildingAggregateRoot)
	m.UnitID = inv.UnitID
	m.UnitLabel = inv.UnitLabel
	m.Period = inv.Period
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.OutstandingAmount = inv.OutstandingAmount
	m.Status = inv.Status
	m.Description = inv.Description
	m.DueDate = inv.DueDate
	m.PaymentRecords = inv.PaymentRecords
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	BuildingAggregateModel
	UnitID            uuid.UUID                `gorm:"type:uuid;not null;index"`
	UnitLabel         string                   `gorm:"type:varchar(50);not null"`
	Amount            decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AllocatedAmount   decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	UnallocatedAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PaymentMethod     billing.PaymentMethod    `gorm:"type:varchar(30);not null"`
	Reference         string                   `gorm:"type:varchar(100);index"`
	ProofURL          string                   `gorm:"type:varchar(500)"`
	Status            billing.PaymentStatus    `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentDate       time.Time                `gorm:"not null"`
	Allocations       []InvoiceAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
	Notes             string                   `gorm:"type:text"`
	SubmittedBy       uuid.UUID                `gorm:"type:uuid;not null;index"`
	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectedAt        *time.Time
	RejectedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectionReason   string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		BuildingAggregateRoot: shared.BuildingAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			BuildingID: m.BuildingID,
			CreatedBy:  m.CreatedBy,
		},
		UnitID:            m.UnitID,
		UnitLabel:         m.UnitLabel,
		Amount:            m.Amount,
		AllocatedAmount:   m.AllocatedAmount,
		UnallocatedAmount: m.UnallocatedAmount,
		PaymentMethod:     m.PaymentMethod,
		Reference:         m.Reference,
		ProofURL:          m.ProofURL,
		Status:            m.Status,
		PaymentDate:       m.PaymentDate,
		Notes:             m.Notes,
		SubmittedBy:       m.SubmittedBy,
		ApprovedAt:        m.ApprovedAt,
		ApprovedBy:        m.ApprovedBy,
		RejectedAt:        m.RejectedAt,
		RejectedBy:        m.RejectedBy,
		RejectionReason:   m.RejectionReason,
		Allocations:       make([]billing.InvoiceAllocation, len(m.Allocations)),
	}
	for i, alloc := range m.Allocations {
		p.Allocations[i] = *alloc.ToDomain()
	}
	p.MarkVersionLoaded()
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainBuildingAggregateRoot(p.BuildingAggregateRoot)
	m.UnitID = p.UnitID
	m.UnitLabel = p.UnitLabel
	m.Amount = p.Amount
	m.AllocatedAmount = p.AllocatedAmount
	m.UnallocatedAmount = p.UnallocatedAmount
	m.PaymentMethod = p.PaymentMethod
	m.Reference = p.Reference
	m.ProofURL = p.ProofURL
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.Notes = p.Notes
	m.SubmittedBy = p.SubmittedBy
	m.ApprovedAt = p.ApprovedAt
	m.ApprovedBy = p.ApprovedBy
	m.RejectedAt = p.RejectedAt
	m.RejectedBy = p.RejectedBy
	m.RejectionReason = p.RejectionReason
	m.Allocations = make([]InvoiceAllocationModel, len(p.Allocations))
	for i, alloc := range p.Allocations {
		m.Allocations[i] = *InvoiceAllocationModelFromDomain(&alloc)
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// InvoiceAllocationModel is the persistence model for InvoiceAllocation.
type InvoiceAllocationModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	PaymentID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	InvoiceID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	Period      valueobject.Period `gorm:"type:varchar(7);not null"`
	Amount      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	AllocatedAt time.Time          `gorm:"not null"`
	Remark      string             `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceAllocationModel) TableName() string {
	return "invoice_allocations"
}

// ToDomain converts the persistence model to a domain InvoiceAllocation.
func (m *InvoiceAllocationModel) ToDomain() *billing.InvoiceAllocation {
	return &billing.InvoiceAllocation{
		ID:          m.ID,
		PaymentID:   m.PaymentID,
		InvoiceID:   m.InvoiceID,
		Period:      m.Period,
		Amount:      m.Amount,
		AllocatedAt: m.AllocatedAt,
		Remark:      m.Remark,
	}
}

// FromDomain populates the persistence model from a domain InvoiceAllocation.
func (m *InvoiceAllocationModel) FromDomain(a *billing.InvoiceAllocation) {
	m.ID = a.ID
	m.PaymentID = a.PaymentID
	m.InvoiceID = a.InvoiceID
	m.Period = a.Period
	m.Amount = a.Amount
	m.AllocatedAt = a.AllocatedAt
	m.Remark = a.Remark
}

// InvoiceAllocationModelFromDomain creates a new persistence model from domain.
func InvoiceAllocationModelFromDomain(a *billing.InvoiceAllocation) *InvoiceAllocationModel {
	m := &InvoiceAllocationModel{}
	m.FromDomain(a)
	return m
}
