package entity

import "time"

// CertificateInfo proyección de solo lectura de un certificado cargado.
type CertificateInfo struct {
	Subject         string    `json:"subject"`
	Issuer          string    `json:"issuer"`
	Thumbprint      string    `json:"thumbprint"`
	NotBefore       time.Time `json:"notBefore"`
	NotAfter        time.Time `json:"notAfter"`
	IsValid         bool      `json:"isValid"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
}
