package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrTenantNotFound       = errors.New("tenant no encontrado")
	ErrCertificateNotFound  = errors.New("certificado no encontrado")
	ErrCertificateExpired   = errors.New("certificado vencido")
	ErrCertificateRejected  = errors.New("certificado rechazado")
	ErrSigningKeyMissing    = errors.New("el certificado no contiene llave privada RSA")
	ErrSecretNotFound       = errors.New("secreto no encontrado")
	ErrDemoModeInProduction = errors.New("modo demo no permitido contra el endpoint de producción")
)
