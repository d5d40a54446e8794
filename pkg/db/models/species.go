package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChangeEntryType enumerates the allowed care-log entry kinds.
type ChangeEntryType string

const (
	ChangeEntryFeeding     ChangeEntryType = "feeding"
	ChangeEntryTemperature ChangeEntryType = "temperature"
	ChangeEntryOther       ChangeEntryType = "other"
)

// IsValid reports whether the entry type is one of the known kinds.
func (t ChangeEntryType) IsValid() bool {
	switch t {
	case ChangeEntryFeeding, ChangeEntryTemperature, ChangeEntryOther:
		return true
	}
	return false
}

// ChangeEntry is one care-log line embedded in a species record. Entries have
// no identity of their own; the log is replaced wholesale on update.
type ChangeEntry struct {
	Date        string          `json:"date"`
	Type        ChangeEntryType `json:"type"`
	Description string          `json:"description"`
}

// ChangeLog stores the ordered care log as a JSON column.
type ChangeLog []ChangeEntry

func (c ChangeLog) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (c *ChangeLog) Scan(value any) error {
	if value == nil {
		*c = ChangeLog{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return fmt.Errorf("unsupported change log column type %T", value)
}

// Species is one inventory record. All reads and writes are scoped by OwnerID;
// CategoryID is a reference by convention only, dangling values are tolerated.
type Species struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID          uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	Name             string          `gorm:"column:name;not null"`
	CategoryID       uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	TemperatureMin   *float64        `gorm:"column:temperature_min"`
	TemperatureMax   *float64        `gorm:"column:temperature_max"`
	NestHumidityMin  *float64        `gorm:"column:nest_humidity_min"`
	NestHumidityMax  *float64        `gorm:"column:nest_humidity_max"`
	ArenaHumidityMin *float64        `gorm:"column:arena_humidity_min"`
	ArenaHumidityMax *float64        `gorm:"column:arena_humidity_max"`
	Behavior         string          `gorm:"column:behavior;not null;default:''"`
	Description      string          `gorm:"column:description;not null;default:''"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	InStock          bool            `gorm:"column:in_stock;not null;default:false"`
	ChangeLog        ChangeLog       `gorm:"column:change_log;type:jsonb"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Species) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
