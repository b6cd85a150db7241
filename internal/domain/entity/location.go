package entity

import "time"

// Location representa una bodega o ubicación donde se almacena inventario.
type Location struct {
	ID          string
	Code        string // único
	Name        string
	Description string
	CreatedAt   time.Time
}
