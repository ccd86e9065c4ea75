package catalog

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	Name          LocalizedName `json:"name" validate:"required,min=1"`
	CategoryID    string        `json:"categoryId" validate:"required,max=64"`
	Price         float64       `json:"price" validate:"gte=0"`
	StockQuantity int           `json:"stockQuantity" validate:"gte=0"`
}

// UpdateProductRequest is the body of PUT /products/{id}. Stock is managed
// through the inventory endpoints only.
type UpdateProductRequest struct {
	Name       LocalizedName `json:"name,omitempty"`
	CategoryID *string       `json:"categoryId,omitempty" validate:"omitempty,max=64"`
	Price      *float64      `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// ProductView is a product with its name resolved for the caller's language.
type ProductView struct {
	Product
	DisplayName string `json:"displayName"`
}
