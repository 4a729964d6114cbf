package product

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
)

// SizeOption is a purchasable volume of a sized product and its price.
type SizeOption struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

type sizeMultiplier struct {
	label      string
	multiplier decimal.Decimal
}

// Oils are sold in volumes priced as a multiple of the base (first) size.
var sizeTable = map[string][]sizeMultiplier{
	"essential oils": {
		{label: "10ml", multiplier: decimal.NewFromInt(1)},
		{label: "30ml", multiplier: decimal.RequireFromString("2.8")},
		{label: "50ml", multiplier: decimal.RequireFromString("4.5")},
	},
	"carrier oils": {
		{label: "100ml", multiplier: decimal.NewFromInt(1)},
		{label: "200ml", multiplier: decimal.RequireFromString("1.9")},
		{label: "500ml", multiplier: decimal.RequireFromString("4.5")},
	},
}

// SizesFor lists the size options of a category, or nil when it is not sized.
func SizesFor(category string, base decimal.Decimal) []SizeOption {
	table := sizeTable[strings.ToLower(strings.TrimSpace(category))]
	if len(table) == 0 {
		return nil
	}
	out := make([]SizeOption, 0, len(table))
	for i, entry := range table {
		price := base
		if i > 0 {
			price = base.Mul(entry.multiplier).Round(0)
		}
		out = append(out, SizeOption{Label: entry.label, Price: price})
	}
	return out
}

// PriceForSize resolves the selected size of a product. The base size and
// unsized products carry no custom price. An empty selection on a sized
// category picks the base size.
func PriceForSize(category string, base decimal.Decimal, size *string) (*string, *decimal.Decimal, error) {
	table := sizeTable[strings.ToLower(strings.TrimSpace(category))]
	label := ""
	if size != nil {
		label = strings.TrimSpace(*size)
	}

	if len(table) == 0 {
		if label != "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no size options")
		}
		return nil, nil, nil
	}
	if label == "" {
		first := table[0].label
		return &first, nil, nil
	}
	for i, entry := range table {
		if !strings.EqualFold(entry.label, label) {
			continue
		}
		selected := entry.label
		if i == 0 {
			return &selected, nil, nil
		}
		price := base.Mul(entry.multiplier).Round(0)
		return &selected, &price, nil
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown size "+label)
}
