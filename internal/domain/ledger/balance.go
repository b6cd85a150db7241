// Package ledger contiene la aritmética pura del kardex: cómo un movimiento transforma
// el saldo de un par (ítem, ubicación) y cómo se verifica una cadena de asientos.
// No conoce persistencia ni concurrencia.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// QuantityScale decimales que admite una cantidad o saldo (columnas NUMERIC(18,4)).
const QuantityScale = 4

// MaxQuantity cota exclusiva del valor absoluto de cantidades y saldos.
var MaxQuantity = decimal.New(1, 18-QuantityScale)

// ValidateQuantity rechaza cantidades con más de QuantityScale decimales o fuera de rango.
// Cantidad y saldo deben caber sin redondeo en NUMERIC(18,4).
func ValidateQuantity(qty decimal.Decimal) error {
	if !qty.Equal(qty.Truncate(QuantityScale)) {
		return domain.Invalid("la cantidad admite como máximo %d decimales", QuantityScale)
	}
	if qty.Abs().GreaterThanOrEqual(MaxQuantity) {
		return domain.Invalid("la cantidad debe ser menor que %s", MaxQuantity.String())
	}
	return nil
}

// Posting resultado de aplicar un movimiento sobre un saldo:
// Delta es la cantidad firmada del asiento y Balance el saldo resultante.
type Posting struct {
	Delta   decimal.Decimal
	Balance decimal.Decimal
}

// Apply calcula el asiento de un movimiento IN, OUT o ADJUSTMENT sobre el saldo actual.
//
//	IN:         qty > 0, saldo + qty
//	OUT:        qty > 0, saldo - qty; ErrInsufficientStock si quedaría negativo
//	ADJUSTMENT: qty >= 0 es el saldo absoluto final; Delta = qty - saldo
func Apply(t entity.TransactionType, current, qty decimal.Decimal) (Posting, error) {
	if err := ValidateQuantity(qty); err != nil {
		return Posting{}, err
	}
	switch t {
	case entity.TransactionIN:
		if !qty.IsPositive() {
			return Posting{}, domain.Invalid("la cantidad debe ser mayor que cero")
		}
		balance := current.Add(qty)
		if balance.GreaterThanOrEqual(MaxQuantity) {
			return Posting{}, domain.Invalid("el saldo resultante %s excede el máximo permitido", balance.String())
		}
		return Posting{Delta: qty, Balance: balance}, nil
	case entity.TransactionOUT:
		if !qty.IsPositive() {
			return Posting{}, domain.Invalid("la cantidad debe ser mayor que cero")
		}
		if current.LessThan(qty) {
			return Posting{}, fmt.Errorf("%w: disponible %s, solicitado %s", domain.ErrInsufficientStock, current.String(), qty.String())
		}
		return Posting{Delta: qty.Neg(), Balance: current.Sub(qty)}, nil
	case entity.TransactionADJUSTMENT:
		if qty.IsNegative() {
			return Posting{}, domain.Invalid("el ajuste no puede dejar existencia negativa")
		}
		return Posting{Delta: qty.Sub(current), Balance: qty}, nil
	}
	return Posting{}, domain.Invalid("tipo de movimiento %q no aplica a una sola ubicación", t)
}

// ApplyTransfer calcula las dos patas de un traslado: salida del origen y entrada al destino.
// Falla sin efectos si el origen no alcanza.
func ApplyTransfer(fromBalance, toBalance, qty decimal.Decimal) (out Posting, in Posting, err error) {
	out, err = Apply(entity.TransactionOUT, fromBalance, qty)
	if err != nil {
		return Posting{}, Posting{}, err
	}
	in, err = Apply(entity.TransactionIN, toBalance, qty)
	if err != nil {
		return Posting{}, Posting{}, err
	}
	return out, in, nil
}
