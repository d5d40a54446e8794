package species

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
	pkgerrors "github.com/mkowalczyk/terrastock-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	envFieldMin = 0
	envFieldMax = 100
)

// parseEnvField coerces an environment form value to its stored form. The
// empty string maps to absent (nil), anything else must parse as a number in
// [0, 100]. The min/max pair of a range is not cross-checked; an inverted
// range is stored as given.
func parseEnvField(name, raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s must be a number", name))
	}
	if value < envFieldMin || value > envFieldMax {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s must be between %d and %d", name, envFieldMin, envFieldMax))
	}
	return &value, nil
}

// parsePrice coerces the submitted price. The empty string maps to zero;
// negative prices are rejected.
func parsePrice(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be a number")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	return price, nil
}

// normalizedFields holds the coerced writable fields shared by create and
// update.
type normalizedFields struct {
	Name             string
	CategoryID       string
	TemperatureMin   *float64
	TemperatureMax   *float64
	NestHumidityMin  *float64
	NestHumidityMax  *float64
	ArenaHumidityMin *float64
	ArenaHumidityMax *float64
	Behavior         string
	Description      string
	Price            decimal.Decimal
	InStock          bool
	ChangeLog        models.ChangeLog
}

// normalizeInput validates and coerces a full submission. Both create and
// update run through here so the two paths cannot drift.
func normalizeInput(input SpeciesInput) (*normalizedFields, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "species name is required")
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}

	out := &normalizedFields{
		Name:        name,
		CategoryID:  strings.TrimSpace(input.CategoryID),
		Behavior:    input.Behavior,
		Description: input.Description,
		InStock:     input.InStock,
	}

	envFields := []struct {
		name string
		raw  string
		dest **float64
	}{
		{"temperature_min", input.TemperatureMin, &out.TemperatureMin},
		{"temperature_max", input.TemperatureMax, &out.TemperatureMax},
		{"nest_humidity_min", input.NestHumidityMin, &out.NestHumidityMin},
		{"nest_humidity_max", input.NestHumidityMax, &out.NestHumidityMax},
		{"arena_humidity_min", input.ArenaHumidityMin, &out.ArenaHumidityMin},
		{"arena_humidity_max", input.ArenaHumidityMax, &out.ArenaHumidityMax},
	}
	for _, field := range envFields {
		value, err := parseEnvField(field.name, field.raw)
		if err != nil {
			return nil, err
		}
		*field.dest = value
	}

	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	out.Price = price

	log := make(models.ChangeLog, 0, len(input.Changes))
	for i, entry := range input.Changes {
		kind := models.ChangeEntryType(entry.Type)
		if !kind.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("changes[%d]: unknown entry type %q", i, entry.Type))
		}
		if strings.TrimSpace(entry.Date) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("changes[%d]: date is required", i))
		}
		log = append(log, models.ChangeEntry{
			Date:        entry.Date,
			Type:        kind,
			Description: entry.Description,
		})
	}
	out.ChangeLog = log

	return out, nil
}
