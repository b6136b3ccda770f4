package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DispatchReport is one verified dock/departure report submitted by an
// Ops PIC from the dashboard.
type DispatchReport struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ClusterName    string     `gorm:"not null;index" json:"cluster_name"`
	StationName    string     `gorm:"not null" json:"station_name"`
	Region         string     `gorm:"not null;index" json:"region"`
	CountOfTO      string     `gorm:"not null" json:"count_of_to"`
	TotalOidLoaded int        `gorm:"not null" json:"total_oid_loaded"`
	DockNumber     string     `gorm:"not null" json:"dock_number"`
	DockConfirmed  bool       `gorm:"not null" json:"dock_confirmed"`
	Status         string     `gorm:"default:'Pending';index" json:"status"`
	LHTrip         *string    `json:"lh_trip,omitempty"`
	DockedTime     time.Time  `gorm:"not null;index" json:"docked_time"`
	DepartTime     *time.Time `json:"depart_time,omitempty"`
	Processor      *string    `json:"processor,omitempty"`
	Plate          *string    `json:"plate,omitempty"`
	FleetSize      string     `json:"fleet_size,omitempty"`
	AssignedOpsID  string     `gorm:"not null;index" json:"assigned_ops_id"`
	SubmittedBy    *uuid.UUID `gorm:"type:uuid;index" json:"submitted_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *DispatchReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (DispatchReport) TableName() string {
	return "dispatch_reports"
}
