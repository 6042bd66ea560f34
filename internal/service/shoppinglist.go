package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShoppingListItem is one aggregated line of the shopping list. Amounts are
// accumulated as decimals so repeated small additions do not drift.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          decimal.Decimal
}

// ShoppingListService sums ingredient quantities across all recipes in a
// user's cart, grouped by display identity (name, unit).
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Build returns the aggregated list sorted by ingredient name. An empty cart
// yields ErrCartEmpty rather than a zero-line list.
func (s *ShoppingListService) Build(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	var rows []struct {
		Name            string
		MeasurementUnit string
		Amount          float64
	}
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrCartEmpty
	}

	type key struct{ name, unit string }
	totals := make(map[key]decimal.Decimal, len(rows))
	for _, r := range rows {
		k := key{r.Name, r.MeasurementUnit}
		totals[k] = totals[k].Add(decimal.NewFromFloat(r.Amount))
	}

	items := make([]ShoppingListItem, 0, len(totals))
	for k, amount := range totals {
		items = append(items, ShoppingListItem{
			Name:            k.name,
			MeasurementUnit: k.unit,
			Amount:          amount,
		})
	}
	// Storage iteration order is not guaranteed; sort for a reproducible report.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items, nil
}
