package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType clasificación de la factura según la administración tributaria.
type InvoiceType string

const (
	InvoiceTypeNormal     InvoiceType = "Normal"
	InvoiceTypeCorrective InvoiceType = "Corrective"
	InvoiceTypeSummary    InvoiceType = "Summary"
	InvoiceTypePeriodical InvoiceType = "Periodical"
	InvoiceTypeAdvance    InvoiceType = "Advance"
	InvoiceTypeCreditNote InvoiceType = "CreditNote"
)

// Invoice factura doméstica ya validada por la capa web.
// Los totales se transmiten tal cual: el motor no los recalcula.
type Invoice struct {
	Number          int64              `json:"number"`
	IssueDateTime   time.Time          `json:"issueDateTime"`
	BusinessUnit    string             `json:"businessUnit,omitempty"` // vacío = valor del tenant
	TCRCode         string             `json:"tcrCode,omitempty"`      // vacío = valor del tenant
	TotalWithoutVAT decimal.Decimal    `json:"totalWithoutVat"`
	TotalVAT        decimal.Decimal    `json:"totalVat"`
	TotalPrice      decimal.Decimal    `json:"totalPrice"`
	IsCash          bool               `json:"isCash"`
	IsReverseCharge bool               `json:"isReverseCharge,omitempty"`
	Type            InvoiceType        `json:"type,omitempty"`
	Items           []InvoiceItem      `json:"items"`
	PaymentMethods  []PaymentMethod    `json:"paymentMethods"`
	Buyer           *Buyer             `json:"buyer,omitempty"`
	Operator        *Operator          `json:"operator,omitempty"`
	Corrective      *CorrectiveInvoice `json:"corrective,omitempty"`

	// Campos producidos por el motor de fiscalización.
	IIC          string `json:"iic,omitempty"`
	IICSignature string `json:"iicSignature,omitempty"`
	FIC          string `json:"fic,omitempty"`
}

// InvoiceItem línea de factura. VATAmount y TotalPrice llegan calculados.
type InvoiceItem struct {
	Name           string           `json:"name"`
	Code           string           `json:"code"`
	Unit           string           `json:"unit"`
	Quantity       decimal.Decimal  `json:"quantity"`
	PriceBeforeVAT decimal.Decimal  `json:"priceBeforeVat"`
	VATRate        decimal.Decimal  `json:"vatRate"`
	VATAmount      decimal.Decimal  `json:"vatAmount"`
	TotalPrice     decimal.Decimal  `json:"totalPrice"`
	Rebate         *decimal.Decimal `json:"rebate,omitempty"`
	ExemptionCode  string           `json:"exemptionCode,omitempty"`
}

// PaymentMethod medio de pago (CASH, CARD, ACCOUNT, ORDER, ADVANCE, FACTORING, OTHER).
type PaymentMethod struct {
	Type        string           `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	AdvanceIIC  string           `json:"advanceIic,omitempty"`
	CompanyCard string           `json:"companyCard,omitempty"`
	CardInfo    *CardPaymentInfo `json:"cardInfo,omitempty"`
}

// CardPaymentInfo metadatos de pago con tarjeta.
type CardPaymentInfo struct {
	CardNumber        string    `json:"cardNumber"` // últimos 4 dígitos
	AuthorizationCode string    `json:"authorizationCode"`
	TerminalID        string    `json:"terminalId"`
	TransactionTime   time.Time `json:"transactionTime"`
}

// Operator operador de caja que emite el documento.
type Operator struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Buyer comprador (opcional en facturas de contado).
type Buyer struct {
	IDType  string `json:"idType"` // TIN, ID, PASS, VAT, TAX, SOC
	IDNum   string `json:"idNum"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Town    string `json:"town,omitempty"`
	Country string `json:"country,omitempty"`
}

// CorrectiveInvoice referencia a la factura original que se corrige.
type CorrectiveInvoice struct {
	IICRef        string    `json:"iicRef"`
	IssueDateTime time.Time `json:"issueDateTime"`
	Type          string    `json:"type"` // CORRECTIVE | ERROR_CORRECTIVE
}
