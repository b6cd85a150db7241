package dto

import "github.com/jhoicas/stock-ledger-api/internal/domain/entity"

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToLedgerEntryResponse mapea un asiento del dominio a su representación HTTP.
func ToLedgerEntryResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		TransactionID:  e.TransactionID,
		ItemID:         e.ItemID,
		LocationID:     e.LocationID,
		Type:           string(e.Type),
		Quantity:       e.Quantity,
		RunningBalance: e.RunningBalance,
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt,
		CreatedBy:      e.CreatedBy,
	}
}

// ToStockLevelResponse mapea una existencia proyectada.
func ToStockLevelResponse(l *entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ItemID:     l.ItemID,
		LocationID: l.LocationID,
		Quantity:   l.Quantity,
		UpdatedAt:  l.UpdatedAt,
	}
}

// ToItemResponse mapea un ítem.
func ToItemResponse(i *entity.Item) ItemResponse {
	return ItemResponse{ID: i.ID, SKU: i.SKU, Name: i.Name, Description: i.Description, CreatedAt: i.CreatedAt}
}

// ToLocationResponse mapea una ubicación.
func ToLocationResponse(l *entity.Location) LocationResponse {
	return LocationResponse{ID: l.ID, Code: l.Code, Name: l.Name, Description: l.Description, CreatedAt: l.CreatedAt}
}

// ToUserResponse mapea un usuario sin exponer el hash.
func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
