package dto

// DependentFacetsQuery narrows model and price options by the selected make, style and
// condition.
type DependentFacetsQuery struct {
	Make      string `form:"make"`
	Style     string `form:"style"`
	Condition string `form:"condition"`
}

// CountQuery limits listing endpoints.
type CountQuery struct {
	Count int `form:"count" validate:"omitempty,min=1,max=100"`
}

// ModelPriceQuery looks up the listed price of a model.
type ModelPriceQuery struct {
	Model string `form:"model" validate:"required"`
}

// ModelPriceResponse pairs a model with its price.
type ModelPriceResponse struct {
	Model string `json:"model"`
	Price int    `json:"price"`
}
