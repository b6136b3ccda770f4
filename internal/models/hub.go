package models

import "time"

type Cluster struct {
	Code      string    `gorm:"primaryKey;size:32" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	Region    string    `gorm:"index" json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

func (Cluster) TableName() string {
	return "clusters"
}

type Hub struct {
	Code        string    `gorm:"primaryKey;size:32" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Region      string    `gorm:"index" json:"region"`
	ClusterCode string    `gorm:"size:32;index" json:"cluster_code"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Hub) TableName() string {
	return "hubs"
}
