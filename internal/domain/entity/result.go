package entity

// FiscalizationResult resultado terminal de un registro de factura o depósito.
// O bien Success con Code (FIC o FCDC), o bien fallo con al menos un error.
type FiscalizationResult struct {
	Success bool     `json:"success"`
	Code    string   `json:"code,omitempty"` // FIC (factura) o FCDC (depósito)
	UUID    string   `json:"uuid,omitempty"`
	Errors  []string `json:"errors,omitempty"`

	// Demo indica un registro sintético (sin certificados ni red); no es autoritativo.
	Demo bool `json:"demo"`

	IIC           string `json:"iic,omitempty"`
	IICSignature  string `json:"iicSignature,omitempty"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	VerifyURL     string `json:"verifyUrl,omitempty"`

	// Material para la capa de auditoría (fuera de este módulo).
	RequestXML    string `json:"-"`
	ResponseXML   string `json:"-"`
	RequestDigest string `json:"requestDigest,omitempty"`
}

// Failed construye un resultado fallido con los mensajes indicados.
func Failed(errs ...string) FiscalizationResult {
	if len(errs) == 0 {
		errs = []string{"unknown error"}
	}
	return FiscalizationResult{Success: false, Errors: errs}
}
