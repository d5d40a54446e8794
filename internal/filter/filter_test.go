package filter

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/terrastock-backend/pkg/db/models"
)

func makeSpecies(name string, categoryID uuid.UUID, price string, inStock bool) models.Species {
	p, _ := decimal.NewFromString(price)
	return models.Species{
		ID:         uuid.New(),
		Name:       name,
		CategoryID: categoryID,
		Price:      p,
		InStock:    inStock,
	}
}

func names(rows []models.Species) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Name)
	}
	return out
}

func TestApplyEmptyCriteriaReturnsEverything(t *testing.T) {
	rows := []models.Species{
		makeSpecies("Ant", uuid.New(), "10", true),
		makeSpecies("Bee", uuid.New(), "20", false),
	}

	got := Apply(rows, Criteria{})
	require.Equal(t, []string{"Ant", "Bee"}, names(got))
}

func TestApplySearchIsCaseInsensitiveSubstring(t *testing.T) {
	rows := []models.Species{
		makeSpecies("Leafcutter Ant", uuid.New(), "10", true),
		makeSpecies("Honey Bee", uuid.New(), "20", true),
		makeSpecies("Fire ANT", uuid.New(), "15", true),
	}

	got := Apply(rows, Criteria{SearchTerm: "ant"})
	require.Equal(t, []string{"Leafcutter Ant", "Fire ANT"}, names(got))
}

func TestApplySearchAlsoMatchesDescription(t *testing.T) {
	withDesc := makeSpecies("Polyrhachis", uuid.New(), "30", true)
	withDesc.Description = "arboreal weaver ant"
	rows := []models.Species{
		withDesc,
		makeSpecies("Honey Bee", uuid.New(), "20", true),
	}

	got := Apply(rows, Criteria{SearchTerm: "weaver"})
	require.Equal(t, []string{"Polyrhachis"}, names(got))
}

func TestApplyCriteriaAreConjunctive(t *testing.T) {
	cat := uuid.New()
	other := uuid.New()
	rows := []models.Species{
		makeSpecies("Ant", cat, "10", true),
		makeSpecies("Ant queen", other, "10", true),
		makeSpecies("Antlion", cat, "200", true),
		makeSpecies("Ant colony", cat, "15", false),
	}

	got := Apply(rows, Criteria{
		SearchTerm:  "ant",
		CategoryID:  cat.String(),
		PriceMax:    "100",
		InStockOnly: true,
	})
	require.Equal(t, []string{"Ant"}, names(got))
}

func TestApplyPriceBounds(t *testing.T) {
	rows := []models.Species{
		makeSpecies("cheap", uuid.New(), "5", true),
		makeSpecies("mid", uuid.New(), "50", true),
		makeSpecies("expensive", uuid.New(), "500", true),
	}

	got := Apply(rows, Criteria{PriceMin: "10", PriceMax: "100"})
	require.Equal(t, []string{"mid"}, names(got))

	t.Run("bounds are inclusive", func(t *testing.T) {
		got := Apply(rows, Criteria{PriceMin: "5", PriceMax: "500"})
		require.Len(t, got, 3)
	})
}

func TestApplyUnparseableBoundIsIgnored(t *testing.T) {
	rows := []models.Species{
		makeSpecies("Ant", uuid.New(), "10", true),
		makeSpecies("Bee", uuid.New(), "20", true),
	}

	got := Apply(rows, Criteria{PriceMin: "abc"})
	require.Len(t, got, 2, "an unparseable bound must behave as if unset")

	got = Apply(rows, Criteria{PriceMin: "abc", PriceMax: "15"})
	require.Equal(t, []string{"Ant"}, names(got))
}

func TestApplyInStockOnly(t *testing.T) {
	rows := []models.Species{
		makeSpecies("Ant", uuid.New(), "10", true),
		makeSpecies("Bee", uuid.New(), "20", false),
	}

	got := Apply(rows, Criteria{InStockOnly: true})
	require.Equal(t, []string{"Ant"}, names(got))
}

func TestApplyNeverMutatesInput(t *testing.T) {
	rows := []models.Species{
		makeSpecies("Ant", uuid.New(), "10", true),
		makeSpecies("Bee", uuid.New(), "20", false),
	}

	got := Apply(rows, Criteria{InStockOnly: true})
	require.Len(t, got, 1)
	require.Len(t, rows, 2)
	require.Equal(t, "Ant", rows[0].Name)
	require.Equal(t, "Bee", rows[1].Name)

	got[0].Name = "changed"
	require.Equal(t, "Ant", rows[0].Name, "result must be a fresh slice")
}

func TestApplyCanReturnEmpty(t *testing.T) {
	rows := []models.Species{
		makeSpecies("Ant", uuid.New(), "10", true),
	}

	got := Apply(rows, Criteria{SearchTerm: "tarantula"})
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestCriteriaIsZero(t *testing.T) {
	require.True(t, Criteria{}.IsZero())
	require.False(t, Criteria{SearchTerm: "x"}.IsZero())
	require.False(t, Criteria{InStockOnly: true}.IsZero())
}
