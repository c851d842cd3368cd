// Package certstore resuelve el certificado de firma/sello de cada tenant:
// caché en memoria, almacén de secretos (Vault KV v2) y respaldo en disco local.
package certstore

import (
	"context"
)

// Campos guardados en el secreto del certificado.
const (
	FieldCertificate = "certificate" // PKCS#12 en Base64
	FieldPassword    = "password"
	FieldThumbprint  = "thumbprint"
	FieldSubject     = "subject"
	FieldIssuer      = "issuer"
	FieldNotBefore   = "notBefore"
	FieldNotAfter    = "notAfter"
	FieldUploadedAt  = "uploadedAt"
)

const secretPathPrefix = "fiscalization/certificates/"

// SecretStore puerto hacia el almacén de secretos.
// Read devuelve domain.ErrSecretNotFound si el secreto no existe.
type SecretStore interface {
	Read(ctx context.Context, path string) (map[string]string, error)
	Write(ctx context.Context, path string, data map[string]string) error
}

// SecretPath ruta del secreto del certificado de un tenant.
func SecretPath(tenantID string) string {
	return secretPathPrefix + tenantID
}
