package categories

import (
	"time"

	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
)

// CategoryInput carries the writable category fields. Color is optional; an
// absent color leaves the stored value untouched on update.
type CategoryInput struct {
	Name  string  `json:"name" validate:"required,min=1,max=120"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// CategoryDTO is the API representation of a category.
type CategoryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToDTO maps a stored category to its API shape.
func ToDTO(row models.Category) CategoryDTO {
	return CategoryDTO{
		ID:        row.ID.String(),
		Name:      row.Name,
		Color:     row.Color,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// ToDTOs maps a category snapshot in order.
func ToDTOs(rows []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row))
	}
	return out
}
