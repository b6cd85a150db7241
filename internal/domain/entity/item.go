package entity

import "time"

// Item representa un artículo del catálogo. Inmutable una vez creado.
type Item struct {
	ID          string
	SKU         string // único
	Name        string
	Description string
	CreatedAt   time.Time
}
