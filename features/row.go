package features

import "fmt"

// Row is one raw (street, date, hour) input to the engine. Targets carries
// the measured count columns when they are known (training); at inference
// the map is empty or ignored — Apply never reads it.
type Row struct {
	ID               string
	Street           string
	Date             string // YYYY-MM-DD
	Hour             int
	Temperature      float64
	WeatherCondition string
	Incidents        string
	CollectionType   string
	Targets          map[string]float64
}

// FeatureRow is the wide numeric vector for one (street, date, hour). The
// identity fields are excluded from the numeric feature set. Never mutated
// after creation.
type FeatureRow struct {
	ID     string
	Street string
	Date   string
	Hour   int
	Values map[string]float64
}

// Vector projects the row onto an ordered column list, e.g. the column set
// a trained model was fitted with. Columns the row does not carry resolve
// to zero.
func (fr FeatureRow) Vector(columns []string) []float64 {
	vec := make([]float64, len(columns))
	for i, col := range columns {
		vec[i] = fr.Values[col]
	}
	return vec
}

func rowID(r Row) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%s_%s_%d", r.Street, r.Date, r.Hour)
}
