package certstore

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/efi-fiscal/internal/domain"
	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	"github.com/jhoicas/efi-fiscal/internal/infrastructure/efi/signer"
	"github.com/jhoicas/efi-fiscal/pkg/logger"
)

// ExpiryWarningWindow por debajo de este margen se avisa que el certificado vence pronto.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// Options dependencias del proveedor. Secrets y Local son opcionales,
// pero al menos uno debe estar presente para resolver certificados.
type Options struct {
	Secrets     SecretStore // Vault u otro almacén remoto
	Local       SecretStore // respaldo en disco; solo fuera de producción
	SlidingTTL  time.Duration
	AbsoluteTTL time.Duration
	Now         func() time.Time
	Logger      *logger.Logger
}

// Provider resuelve el certificado de cada tenant: caché → almacén de secretos → respaldo local.
// El mismo certificado cumple el rol de firma del IIC y de sello del XML.
type Provider struct {
	secrets SecretStore
	local   SecretStore
	cache   *Cache
	group   singleflight.Group
	now     func() time.Time
	log     *logger.Logger
}

// NewProvider crea el proveedor.
func NewProvider(opts Options) *Provider {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SlidingTTL <= 0 {
		opts.SlidingTTL = DefaultSlidingTTL
	}
	if opts.AbsoluteTTL <= 0 {
		opts.AbsoluteTTL = DefaultAbsoluteTTL
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Provider{
		secrets: opts.Secrets,
		local:   opts.Local,
		cache:   NewCache(opts.SlidingTTL, opts.AbsoluteTTL, opts.Now),
		now:     opts.Now,
		log:     opts.Logger.Component("certstore"),
	}
}

// Get devuelve el certificado del tenant o domain.ErrCertificateNotFound.
// Las cargas concurrentes del mismo tenant comparten una sola lectura del almacén.
func (p *Provider) Get(ctx context.Context, tenantID string) (tls.Certificate, error) {
	if tenantID == "" {
		return tls.Certificate{}, fmt.Errorf("%w: tenantID es obligatorio", domain.ErrInvalidInput)
	}
	if cert, ok := p.cache.Get(tenantID); ok {
		p.log.Debug().Str("tenant_id", tenantID).Msg("certificado desde caché")
		return cert, nil
	}

	v, err, _ := p.group.Do(tenantID, func() (interface{}, error) {
		if cert, ok := p.cache.Get(tenantID); ok {
			return cert, nil
		}
		cert, err := p.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		p.cache.Set(tenantID, cert)
		p.log.Info().Str("tenant_id", tenantID).Str("subject", cert.Leaf.Subject.String()).Msg("certificado cargado")
		return cert, nil
	})
	if err != nil {
		return tls.Certificate{}, err
	}
	return v.(tls.Certificate), nil
}

func (p *Provider) load(ctx context.Context, tenantID string) (tls.Certificate, error) {
	path := SecretPath(tenantID)
	var lastErr error

	for _, src := range p.sources() {
		data, err := src.store.Read(ctx, path)
		if errors.Is(err, domain.ErrSecretNotFound) {
			continue
		}
		if err != nil {
			p.log.Error().Err(err).Str("tenant_id", tenantID).Str("source", src.name).Msg("error leyendo certificado")
			lastErr = err
			continue
		}

		cert, err := decodeSecret(data)
		if err != nil {
			p.log.Error().Err(err).Str("tenant_id", tenantID).Str("source", src.name).Msg("certificado ilegible")
			lastErr = err
			continue
		}
		p.checkExpiry(tenantID, cert.Leaf)
		return cert, nil
	}

	if lastErr != nil {
		return tls.Certificate{}, fmt.Errorf("%w: tenant %s: %v", domain.ErrCertificateNotFound, tenantID, lastErr)
	}
	return tls.Certificate{}, fmt.Errorf("%w: tenant %s", domain.ErrCertificateNotFound, tenantID)
}

type namedStore struct {
	name  string
	store SecretStore
}

func (p *Provider) sources() []namedStore {
	var out []namedStore
	if p.secrets != nil {
		out = append(out, namedStore{name: "secrets", store: p.secrets})
	}
	if p.local != nil {
		out = append(out, namedStore{name: "local", store: p.local})
	}
	return out
}

func decodeSecret(data map[string]string) (tls.Certificate, error) {
	blob, ok := data[FieldCertificate]
	if !ok || blob == "" {
		return tls.Certificate{}, fmt.Errorf("secreto sin campo %q", FieldCertificate)
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certificado en Base64: %w", err)
	}
	return signer.DecodeP12(raw, data[FieldPassword])
}

// checkExpiry vencido: error en log; vence en menos de 30 días: warning (sigue siendo usable).
func (p *Provider) checkExpiry(tenantID string, leaf *x509.Certificate) {
	remaining := leaf.NotAfter.Sub(p.now())
	switch {
	case remaining <= 0:
		p.log.Error().Str("tenant_id", tenantID).Time("not_after", leaf.NotAfter).Msg("certificado vencido")
	case remaining < ExpiryWarningWindow:
		p.log.Warn().Str("tenant_id", tenantID).Int("days", daysUntil(remaining)).Msg("certificado próximo a vencer")
	}
}

// Store valida y guarda un PKCS#12 nuevo para el tenant e invalida su entrada en caché.
// Rechaza (domain.ErrCertificateRejected) certificados ya vencidos.
func (p *Provider) Store(ctx context.Context, tenantID string, pfx []byte, password string) (*entity.CertificateInfo, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID es obligatorio", domain.ErrInvalidInput)
	}
	cert, err := signer.DecodeP12(pfx, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCertificateRejected, err)
	}
	leaf := cert.Leaf
	now := p.now()
	if leaf.NotAfter.Before(now) {
		p.log.Warn().Str("tenant_id", tenantID).Time("not_after", leaf.NotAfter).Msg("no se guarda un certificado vencido")
		return nil, fmt.Errorf("%w: vencido el %s", domain.ErrCertificateRejected, leaf.NotAfter.Format(time.RFC3339))
	}

	target := p.secrets
	if target == nil {
		target = p.local
	}
	if target == nil {
		return nil, fmt.Errorf("certstore: no hay almacén configurado")
	}

	data := map[string]string{
		FieldCertificate: base64.StdEncoding.EncodeToString(pfx),
		FieldPassword:    password,
		FieldThumbprint:  signer.Thumbprint(leaf),
		FieldSubject:     leaf.Subject.String(),
		FieldIssuer:      leaf.Issuer.String(),
		FieldNotBefore:   leaf.NotBefore.UTC().Format(time.RFC3339),
		FieldNotAfter:    leaf.NotAfter.UTC().Format(time.RFC3339),
		FieldUploadedAt:  now.UTC().Format(time.RFC3339),
	}
	if err := target.Write(ctx, SecretPath(tenantID), data); err != nil {
		return nil, fmt.Errorf("certstore: guardar certificado: %w", err)
	}
	p.Invalidate(tenantID)

	p.log.Info().Str("tenant_id", tenantID).Str("thumbprint", data[FieldThumbprint]).Msg("certificado guardado")
	return p.project(leaf), nil
}

// Validate true si hay certificado y no está vencido.
func (p *Provider) Validate(ctx context.Context, tenantID string) bool {
	cert, err := p.Get(ctx, tenantID)
	if err != nil {
		return false
	}
	remaining := cert.Leaf.NotAfter.Sub(p.now())
	if remaining <= 0 {
		p.log.Warn().Str("tenant_id", tenantID).Msg("certificado vencido")
		return false
	}
	if remaining < ExpiryWarningWindow {
		p.log.Warn().Str("tenant_id", tenantID).Int("days", daysUntil(remaining)).Msg("certificado próximo a vencer")
	}
	return true
}

// Info proyección del certificado cargado (incluye días hasta el vencimiento).
func (p *Provider) Info(ctx context.Context, tenantID string) (*entity.CertificateInfo, error) {
	cert, err := p.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return p.project(cert.Leaf), nil
}

// Invalidate descarta la entrada del tenant en caché.
func (p *Provider) Invalidate(tenantID string) {
	p.cache.Delete(tenantID)
}

func (p *Provider) project(leaf *x509.Certificate) *entity.CertificateInfo {
	now := p.now()
	return &entity.CertificateInfo{
		Subject:         leaf.Subject.String(),
		Issuer:          leaf.Issuer.String(),
		Thumbprint:      signer.Thumbprint(leaf),
		NotBefore:       leaf.NotBefore,
		NotAfter:        leaf.NotAfter,
		IsValid:         leaf.NotAfter.After(now),
		DaysUntilExpiry: daysUntil(leaf.NotAfter.Sub(now)),
	}
}

// daysUntil días completos (trunca hacia cero).
func daysUntil(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
