package models

import "time"

// SettingsID is the primary key of the singleton settings row.
const SettingsID = 1

// Settings holds the service-wide toggles staff flip during a shift.
type Settings struct {
	ID           int       `gorm:"column:id;primaryKey"`
	GrillOpen    bool      `gorm:"column:grill_open;not null;default:false"`
	ButteryOpen  bool      `gorm:"column:buttery_open;not null;default:false"`
	Announcement string    `gorm:"column:announcement;type:text;not null;default:''"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string { return "settings" }
