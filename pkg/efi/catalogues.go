// Package efi contiene catálogos y formatos del servicio de fiscalización
// electrónica de facturas (EFI) de la administración tributaria de Montenegro.
package efi

// =============================================================================
// Tipos de factura (InvType) y de cobro (TypeOfInv)
// =============================================================================

const (
	InvTypeInvoice    = "INVOICE"
	InvTypeCorrective = "CORRECTIVE"
	InvTypeSummary    = "SUMMARY"
	InvTypeAdvance    = "ADVANCE"

	TypeOfInvCash    = "CASH"
	TypeOfInvNonCash = "NONCASH"
)

// =============================================================================
// Medios de pago (PayMethod/@Type)
// =============================================================================

const (
	PaymentTypeCash      = "CASH"
	PaymentTypeCard      = "CARD"
	PaymentTypeAccount   = "ACCOUNT"
	PaymentTypeOrder     = "ORDER"
	PaymentTypeAdvance   = "ADVANCE"
	PaymentTypeFactoring = "FACTORING"
	PaymentTypeOther     = "OTHER"
)

// ValidPaymentTypes medios de pago aceptados por el esquema.
var ValidPaymentTypes = map[string]bool{
	PaymentTypeCash: true, PaymentTypeCard: true, PaymentTypeAccount: true,
	PaymentTypeOrder: true, PaymentTypeAdvance: true, PaymentTypeFactoring: true,
	PaymentTypeOther: true,
}

// =============================================================================
// Operaciones de depósito en caja (CashDeposit/@Operation)
// =============================================================================

const (
	DepositOperationInitial  = "INITIAL"
	DepositOperationWithdraw = "WITHDRAW"
)

// =============================================================================
// Tipos de identificación (Seller/@IDType, Buyer/@IDType)
// =============================================================================

const (
	IDTypeTIN  = "TIN"
	IDTypeID   = "ID"
	IDTypePass = "PASS"
	IDTypeVAT  = "VAT"
	IDTypeTax  = "TAX"
	IDTypeSoc  = "SOC"
)

// Tipos de factura correctiva (CorrectiveInv/@Type).
const (
	CorrectiveTypeCorrective      = "CORRECTIVE"
	CorrectiveTypeErrorCorrective = "ERROR_CORRECTIVE"
)

// Valores por defecto del esquema.
const (
	DefaultOperatorCode = "op123"
	DefaultUnit         = "PCS"
	MessageVersion      = "1"
	RequestElementID    = "Request"
	MaxItemNameLength   = 40
)

// Elementos raíz de las peticiones y códigos devueltos por el servicio.
const (
	RegisterInvoiceRequest     = "RegisterInvoiceRequest"
	RegisterCashDepositRequest = "RegisterCashDepositRequest"
	ElementFIC                 = "FIC"
	ElementFCDC                = "FCDC"
)
