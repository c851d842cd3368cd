package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit depósito o retiro de efectivo en un TCR. Un depósito por registro.
type Deposit struct {
	Operation      string          `json:"operation"` // INITIAL | WITHDRAW
	Amount         decimal.Decimal `json:"amount"`    // en el mensaje se envía el valor absoluto
	ChangeDateTime time.Time       `json:"changeDateTime"`
	TCRCode        string          `json:"tcrCode,omitempty"`
	BusinessUnit   string          `json:"businessUnit,omitempty"`
	Operator       *Operator       `json:"operator,omitempty"`

	// Producido por el motor de fiscalización.
	FCDC string `json:"fcdc,omitempty"`
}
