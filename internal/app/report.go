package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"kitchen-inventory/internal/costing"
	"kitchen-inventory/internal/inventory"
)

// RenderReport writes a plain-text report. Money is rounded to cents,
// percentages and nutrients to one decimal place.
func RenderReport(w io.Writer, rep costing.Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%s)\n", rep.Name, rep.ItemID)
	sb.WriteString("\nCost\n")
	fmt.Fprintf(&sb, "  Total:            %s\n", money(rep.Cost.TotalCost))
	fmt.Fprintf(&sb, "  Per portion:      %s\n", optional(rep.Cost.CostPerPortion, money))
	fmt.Fprintf(&sb, "  Margin/portion:   %s\n", optional(rep.Cost.MarginPerPortion, money))
	fmt.Fprintf(&sb, "  Goods share:      %s\n", optional(rep.Cost.GoodsSharePercent, percent))
	if rep.Cost.HasMissingPrices {
		sb.WriteString("  ! some prices are missing, totals are incomplete\n")
	}

	sb.WriteString("\nNutrition\n")
	if rep.Nutrition.PerRecipe == nil {
		sb.WriteString("  not available\n")
	} else {
		writeNutrition(&sb, "Per recipe", rep.Nutrition.PerRecipe)
		if rep.Nutrition.PerPortion != nil {
			writeNutrition(&sb, "Per portion", rep.Nutrition.PerPortion)
		}
	}
	if rep.Nutrition.HasMissingData {
		sb.WriteString("  ! some nutrition data is missing\n")
	}

	sb.WriteString("\nAllergens\n")
	fmt.Fprintf(&sb, "  Own:        %s\n", joinOrDash(rep.OwnAllergens))
	fmt.Fprintf(&sb, "  Inherited:  %s\n", joinOrDash(rep.InheritedAllergens))

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeNutrition(sb *strings.Builder, label string, n *inventory.Nutrition) {
	fmt.Fprintf(sb, "  %s:\n", label)
	fmt.Fprintf(sb, "    Energy:         %s kcal\n", round1(n.EnergyKcal))
	fmt.Fprintf(sb, "    Fat:            %s g (saturated %s g)\n", round1(n.Fat), round1(n.SaturatedFat))
	fmt.Fprintf(sb, "    Carbohydrates:  %s g (sugar %s g)\n", round1(n.Carbs), round1(n.Sugar))
	fmt.Fprintf(sb, "    Protein:        %s g\n", round1(n.Protein))
	fmt.Fprintf(sb, "    Salt:           %s g\n", round1(n.Salt))
}

func money(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2) + " €"
}

func percent(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(1) + " %"
}

func round1(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(1)
}

func optional(f *float64, format func(float64) string) string {
	if f == nil {
		return "-"
	}
	return format(*f)
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
