package matching

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultCurrentYear is the reference year used to turn year-built into age.
// Listing data uses the Solar Hijri calendar.
const DefaultCurrentYear = 1403

// Dimension keys used in ScoredListing.Breakdown.
const (
	DimPrice     = "price"
	DimArea      = "area"
	DimLocation  = "location"
	DimCategory  = "category"
	DimBedrooms  = "bedrooms"
	DimAge       = "age"
	DimFloor     = "floor"
	DimParking   = "parking"
	DimElevator  = "elevator"
	DimStorage   = "storage"
	DimRenovated = "renovated"
)

var dimensions = []string{
	DimPrice, DimArea, DimLocation, DimCategory, DimBedrooms, DimAge,
	DimFloor, DimParking, DimElevator, DimStorage, DimRenovated,
}

// Weights defines the maximum contribution of each scoring dimension.
type Weights struct {
	Price     float64 `mapstructure:"price" json:"price"`
	Area      float64 `mapstructure:"area" json:"area"`
	Location  float64 `mapstructure:"location" json:"location"`
	Category  float64 `mapstructure:"category" json:"category"`
	Bedrooms  float64 `mapstructure:"bedrooms" json:"bedrooms"`
	Age       float64 `mapstructure:"age" json:"age"`
	Floor     float64 `mapstructure:"floor" json:"floor"`
	Parking   float64 `mapstructure:"parking" json:"parking"`
	Elevator  float64 `mapstructure:"elevator" json:"elevator"`
	Storage   float64 `mapstructure:"storage" json:"storage"`
	Renovated float64 `mapstructure:"renovated" json:"renovated"`
}

// DefaultWeights sum to 100.
func DefaultWeights() Weights {
	return Weights{
		Price:     30,
		Area:      20,
		Location:  15,
		Category:  10,
		Bedrooms:  10,
		Age:       5,
		Floor:     3,
		Parking:   3,
		Elevator:  2,
		Storage:   1,
		Renovated: 1,
	}
}

func (w Weights) Total() float64 {
	return w.Price + w.Area + w.Location + w.Category + w.Bedrooms + w.Age +
		w.Floor + w.Parking + w.Elevator + w.Storage + w.Renovated
}

func (w Weights) Validate() error {
	m := w.asMap()
	for _, name := range dimensions {
		if m[name] < 0 {
			return fmt.Errorf("weight %q must be >= 0, got %v", name, m[name])
		}
	}
	return nil
}

func (w Weights) asMap() map[string]float64 {
	return map[string]float64{
		DimPrice: w.Price, DimArea: w.Area, DimLocation: w.Location,
		DimCategory: w.Category, DimBedrooms: w.Bedrooms, DimAge: w.Age,
		DimFloor: w.Floor, DimParking: w.Parking, DimElevator: w.Elevator,
		DimStorage: w.Storage, DimRenovated: w.Renovated,
	}
}

// LoadWeightsFromFile reads weights from a YAML or JSON file. Keys missing
// from the file keep their default value.
func LoadWeightsFromFile(path string) (Weights, error) {
	w := DefaultWeights()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := v.Unmarshal(&w); err != nil {
		return DefaultWeights(), fmt.Errorf("unmarshal weights: %w", err)
	}
	if err := w.Validate(); err != nil {
		return DefaultWeights(), err
	}
	return w, nil
}
