package species

import (
	"time"

	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// SpeciesInput carries the writable fields of a record as the form submits
// them. Numeric environment fields arrive as strings; an empty string means
// the field is absent, not zero. The change log is replaced wholesale.
type SpeciesInput struct {
	Name             string             `json:"name" validate:"required,min=1,max=200"`
	CategoryID       string             `json:"category_id" validate:"required,uuid4"`
	TemperatureMin   string             `json:"temperature_min"`
	TemperatureMax   string             `json:"temperature_max"`
	NestHumidityMin  string             `json:"nest_humidity_min"`
	NestHumidityMax  string             `json:"nest_humidity_max"`
	ArenaHumidityMin string             `json:"arena_humidity_min"`
	ArenaHumidityMax string             `json:"arena_humidity_max"`
	Behavior         string             `json:"behavior" validate:"max=2000"`
	Description      string             `json:"description" validate:"max=5000"`
	Price            string             `json:"price"`
	InStock          bool               `json:"in_stock"`
	Changes          []ChangeEntryInput `json:"changes" validate:"dive"`
}

// ChangeEntryInput is one care-log line as submitted.
type ChangeEntryInput struct {
	Date        string `json:"date" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"max=2000"`
}

// StockInput toggles availability without touching the rest of the record.
type StockInput struct {
	InStock bool `json:"in_stock"`
}

// SpeciesDTO is the API representation of a record. Absent environment fields
// are omitted rather than rendered as zero.
type SpeciesDTO struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	CategoryID       string               `json:"category_id"`
	TemperatureMin   *float64             `json:"temperature_min,omitempty"`
	TemperatureMax   *float64             `json:"temperature_max,omitempty"`
	NestHumidityMin  *float64             `json:"nest_humidity_min,omitempty"`
	NestHumidityMax  *float64             `json:"nest_humidity_max,omitempty"`
	ArenaHumidityMin *float64             `json:"arena_humidity_min,omitempty"`
	ArenaHumidityMax *float64             `json:"arena_humidity_max,omitempty"`
	Behavior         string               `json:"behavior"`
	Description      string               `json:"description"`
	Price            decimal.Decimal      `json:"price"`
	InStock          bool                 `json:"in_stock"`
	Changes          []models.ChangeEntry `json:"changes"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ToDTO maps a stored species row to its API shape.
func ToDTO(row models.Species) SpeciesDTO {
	changes := row.ChangeLog
	if changes == nil {
		changes = models.ChangeLog{}
	}
	return SpeciesDTO{
		ID:               row.ID.String(),
		Name:             row.Name,
		CategoryID:       row.CategoryID.String(),
		TemperatureMin:   row.TemperatureMin,
		TemperatureMax:   row.TemperatureMax,
		NestHumidityMin:  row.NestHumidityMin,
		NestHumidityMax:  row.NestHumidityMax,
		ArenaHumidityMin: row.ArenaHumidityMin,
		ArenaHumidityMax: row.ArenaHumidityMax,
		Behavior:         row.Behavior,
		Description:      row.Description,
		Price:            row.Price,
		InStock:          row.InStock,
		Changes:          changes,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

// ToDTOs maps a species snapshot in order.
func ToDTOs(rows []models.Species) []SpeciesDTO {
	out := make([]SpeciesDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row))
	}
	return out
}
