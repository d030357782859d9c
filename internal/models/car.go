package models

// Car is one listing in the catalog.
type Car struct {
	ID           int    `db:"id" json:"id"`
	Make         string `db:"make" json:"make"`
	Model        string `db:"model" json:"model"`
	Year         int    `db:"year" json:"year"`
	Mileage      int    `db:"mileage" json:"mileage"`
	Horsepower   int    `db:"horsepower" json:"horsepower"`
	Price        int    `db:"price" json:"price"`
	Description  string `db:"description" json:"description"`
	ImageURL     string `db:"image_url" json:"image_url"`
	Style        string `db:"style" json:"style"`
	Condition    string `db:"condition" json:"condition"`
	Transmission string `db:"transmission" json:"transmission"`
}

// DefaultTransmission applies when a listing does not state one.
const DefaultTransmission = "automatic"

// CarFilter narrows a catalog search. Empty fields match everything; Price is an upper bound
// given as a decimal string.
type CarFilter struct {
	Year      string `form:"year" json:"year"`
	Style     string `form:"style" json:"style"`
	Make      string `form:"make" json:"make"`
	Model     string `form:"model" json:"model"`
	Condition string `form:"condition" json:"condition"`
	Price     string `form:"price" json:"price"`
}

// CarFacets holds the distinct values used to populate search selectors.
type CarFacets struct {
	Makes      []string `json:"makes"`
	Styles     []string `json:"styles"`
	Conditions []string `json:"conditions"`
	Models     []string `json:"models"`
	Years      []int    `json:"years"`
	Prices     []int    `json:"prices"`
}

// DependentFacets lists the models and prices still reachable after make, style and
// condition have been chosen.
type DependentFacets struct {
	Models []string `json:"models"`
	Prices []int    `json:"prices"`
}
