package dto

// CreateProductRequest has no owner field; the owner is always the caller.
type CreateProductRequest struct {
	Name        string   `json:"nome"`
	Brand       string   `json:"marca"`
	Category    string   `json:"categoria"`
	Quantity    *int     `json:"quantidade"`
	Price       *float64 `json:"preco"`
	Photo       *string  `json:"foto"`
	Description string   `json:"descricao"`
}

// UpdateProductRequest is a sparse patch. The owner cannot be changed.
type UpdateProductRequest struct {
	Name        *string  `json:"nome"`
	Brand       *string  `json:"marca"`
	Category    *string  `json:"categoria"`
	Quantity    *int     `json:"quantidade"`
	Price       *float64 `json:"preco"`
	Photo       *string  `json:"foto"`
	Description *string  `json:"descricao"`
}

func (r *UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Brand == nil && r.Category == nil &&
		r.Quantity == nil && r.Price == nil && r.Photo == nil && r.Description == nil
}

type UpdateStockRequest struct {
	Quantity *int `json:"quantidade"`
}

type ProductQuery struct {
	Name      string `query:"nome"`
	Brand     string `query:"marca"`
	Category  string `query:"categoria"`
	Available bool   `query:"disponivel"`
}

type ProductStatistics struct {
	Total      int     `json:"total"`
	Available  int     `json:"disponivel"`
	OutOfStock int     `json:"semEstoque"`
	StockValue float64 `json:"valorTotalEstoque"`
}
