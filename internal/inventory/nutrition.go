package inventory

// Nutrition holds nutrition facts. On items it is expressed per 100 g (or ml);
// the aggregation engine also uses it for per-gram densities and totals.
type Nutrition struct {
	EnergyKcal   float64 `json:"energy_kcal"`
	Fat          float64 `json:"fat"`
	SaturatedFat float64 `json:"saturated_fat"`
	Carbs        float64 `json:"carbs"`
	Sugar        float64 `json:"sugar"`
	Protein      float64 `json:"protein"`
	Salt         float64 `json:"salt"`
	Fiber        float64 `json:"fiber,omitempty"`
	Sodium       float64 `json:"sodium,omitempty"`
	BreadUnits   float64 `json:"bread_units,omitempty"`
	Cholesterol  float64 `json:"cholesterol,omitempty"`
}

// Scale returns every field multiplied by f.
func (n Nutrition) Scale(f float64) Nutrition {
	return Nutrition{
		EnergyKcal:   n.EnergyKcal * f,
		Fat:          n.Fat * f,
		SaturatedFat: n.SaturatedFat * f,
		Carbs:        n.Carbs * f,
		Sugar:        n.Sugar * f,
		Protein:      n.Protein * f,
		Salt:         n.Salt * f,
		Fiber:        n.Fiber * f,
		Sodium:       n.Sodium * f,
		BreadUnits:   n.BreadUnits * f,
		Cholesterol:  n.Cholesterol * f,
	}
}

// Add returns the field-wise sum of n and o.
func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		EnergyKcal:   n.EnergyKcal + o.EnergyKcal,
		Fat:          n.Fat + o.Fat,
		SaturatedFat: n.SaturatedFat + o.SaturatedFat,
		Carbs:        n.Carbs + o.Carbs,
		Sugar:        n.Sugar + o.Sugar,
		Protein:      n.Protein + o.Protein,
		Salt:         n.Salt + o.Salt,
		Fiber:        n.Fiber + o.Fiber,
		Sodium:       n.Sodium + o.Sodium,
		BreadUnits:   n.BreadUnits + o.BreadUnits,
		Cholesterol:  n.Cholesterol + o.Cholesterol,
	}
}
