// Package efi implementa el protocolo de registro fiscal: construcción del XML,
// sobre SOAP, transporte y lectura de la respuesta de la administración tributaria.
package efi

import (
	"time"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
)

// InvoiceBuildContext datos necesarios para construir RegisterInvoiceRequest.
// Invoice.IIC e Invoice.IICSignature deben venir ya calculados.
type InvoiceBuildContext struct {
	Invoice      *entity.Invoice
	Tenant       *entity.Tenant
	UUID         string    // UUID de correlación del Header
	SendDateTime time.Time // Header/@SendDateTime
}

// DepositBuildContext datos necesarios para construir RegisterCashDepositRequest.
type DepositBuildContext struct {
	Deposit      *entity.Deposit
	Tenant       *entity.Tenant
	UUID         string
	SendDateTime time.Time
}

// DocumentCodes códigos efectivos de unidad de negocio y TCR (documento o tenant).
func DocumentCodes(businessUnit, tcrCode string, tenant *entity.Tenant) (bu, tcr string) {
	bu, tcr = businessUnit, tcrCode
	if bu == "" {
		bu = tenant.BusinessUnitCode
	}
	if tcr == "" {
		tcr = tenant.TCRCode
	}
	return bu, tcr
}
