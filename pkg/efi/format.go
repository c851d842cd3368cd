package efi

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout formato de fecha/hora del esquema: yyyy-MM-ddTHH:mm:ss±hh:mm.
const DateTimeLayout = "2006-01-02T15:04:05-07:00"

// FormatDateTime formatea una fecha con el desfase horario explícito.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// Amount2 montos de cabecera y resumen (2 decimales).
func Amount2(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Amount4 montos de línea (4 decimales).
func Amount4(d decimal.Decimal) string {
	return d.StringFixed(4)
}

// Quantity3 cantidades (3 decimales).
func Quantity3(d decimal.Decimal) string {
	return d.StringFixed(3)
}
