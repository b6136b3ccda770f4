package models

import "time"

// SheetRecord is one row synced from the linehaul Google Sheet.
// RowKey is the idempotency key the sync upserts on; re-running a sync
// over the same range must not duplicate rows.
type SheetRecord struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	RowKey             string     `gorm:"uniqueIndex;size:256;not null" json:"row_key"`
	DispatchDate       *time.Time `gorm:"index" json:"dispatch_date,omitempty"`
	Origin             string     `json:"origin,omitempty"`
	ToDestStationName  string     `json:"to_dest_station_name,omitempty"`
	TripNumber         string     `gorm:"not null;index" json:"trip_number"`
	TONumber           string     `json:"to_number,omitempty"`
	TOParcelQuantity   *int       `json:"to_parcel_quantity,omitempty"`
	LoadedTimestamp    *time.Time `json:"loaded_timestamp,omitempty"`
	OperatorOpsID      *string    `json:"operator_ops_id,omitempty"`
	OperatorName       *string    `json:"operator_name,omitempty"`
	DepartureTimestamp *time.Time `json:"departure_timestamp,omitempty"`
	TruckSize          string     `json:"truck_size,omitempty"`
	VehicleNumber      string     `json:"vehicle_number,omitempty"`
	DriverName         string     `json:"driver_name,omitempty"`
	RawPayload         string     `gorm:"type:text" json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (SheetRecord) TableName() string {
	return "sheet_records"
}
