package fiscal

import (
	"context"
	"crypto/tls"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
)

// TenantDirectory resuelve el perfil fiscal de un tenant (domain.ErrTenantNotFound si no existe).
type TenantDirectory interface {
	Tenant(ctx context.Context, tenantID string) (*entity.Tenant, error)
}

// CertificateSource entrega el certificado (con llave privada) del tenant.
// El mismo certificado firma el IIC y sella el XML.
type CertificateSource interface {
	Get(ctx context.Context, tenantID string) (tls.Certificate, error)
}
