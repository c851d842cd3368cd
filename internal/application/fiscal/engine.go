package fiscal

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/efi-fiscal/internal/domain"
	domainefi "github.com/jhoicas/efi-fiscal/internal/domain/efi"
	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	infraefi "github.com/jhoicas/efi-fiscal/internal/infrastructure/efi"
	"github.com/jhoicas/efi-fiscal/internal/infrastructure/efi/signer"
	"github.com/jhoicas/efi-fiscal/pkg/config"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
	"github.com/jhoicas/efi-fiscal/pkg/logger"
)

// Prefijos de los códigos sintéticos del modo demo.
const (
	DemoFICPrefix  = "DEMO-FIC-"
	DemoFCDCPrefix = "DEMO-FCDC-"
)

// EngineConfig parámetros del protocolo.
type EngineConfig struct {
	DemoMode    bool   // sin certificados ni red: IIC y FIC sintéticos
	Environment string // config.AuthorityEnvTest | config.AuthorityEnvProduction
	Namespace   string
	VerifyURL   string
}

// Dependencies colaboradores del motor. Certificates, Signer y Submitter
// pueden ser nil solo en modo demo.
type Dependencies struct {
	Tenants      TenantDirectory
	Certificates CertificateSource
	Signer       pkgefi.Signer
	Submitter    infraefi.Submitter
	Logger       *logger.Logger
	Now          func() time.Time
}

// Engine orquesta el registro fiscal de una factura o un depósito:
//
//	IIC (solo factura) → XML → Firma XMLDSig → Sobre SOAP → Envío → Parseo de la respuesta
//
// Cada llamada es una transacción independiente y terminal: no guarda estado
// entre llamadas ni reintenta. Nunca devuelve error: todo fallo llega como
// FiscalizationResult{Success: false}.
type Engine struct {
	tenants   TenantDirectory
	certs     CertificateSource
	iic       *domainefi.IICGeneratorService
	builder   *infraefi.XMLBuilderService
	signer    pkgefi.Signer
	submitter infraefi.Submitter
	parser    *infraefi.ResponseParser
	cfg       EngineConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewEngine construye el motor. El modo demo contra producción se rechaza.
func NewEngine(deps Dependencies, cfg EngineConfig) (*Engine, error) {
	if cfg.DemoMode && cfg.Environment == config.AuthorityEnvProduction {
		return nil, domain.ErrDemoModeInProduction
	}
	if deps.Tenants == nil {
		return nil, fmt.Errorf("fiscal: TenantDirectory es obligatorio")
	}
	if !cfg.DemoMode && (deps.Certificates == nil || deps.Signer == nil || deps.Submitter == nil) {
		return nil, fmt.Errorf("fiscal: Certificates, Signer y Submitter son obligatorios fuera del modo demo")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger.Component("fiscal-engine")
	if cfg.DemoMode {
		log.Warn().Msg("modo DEMO activo: los registros son sintéticos y no tienen validez fiscal")
	}

	return &Engine{
		tenants:   deps.Tenants,
		certs:     deps.Certificates,
		iic:       domainefi.NewIICGeneratorService(),
		builder:   infraefi.NewXMLBuilderService(cfg.Namespace),
		signer:    deps.Signer,
		submitter: deps.Submitter,
		parser:    infraefi.NewResponseParser(),
		cfg:       cfg,
		log:       log,
		now:       deps.Now,
	}, nil
}

// DemoMode indica si el motor genera registros sintéticos.
func (e *Engine) DemoMode() bool { return e.cfg.DemoMode }

// FiscalizeInvoice registra la factura. Si tiene éxito, rellena inv.IIC,
// inv.IICSignature e inv.FIC.
func (e *Engine) FiscalizeInvoice(ctx context.Context, inv *entity.Invoice, tenantID string) (res entity.FiscalizationResult) {
	defer e.recoverInto(&res, "invoice", tenantID)

	if inv == nil {
		return entity.Failed("invoice es obligatorio")
	}
	tenant, err := e.tenants.Tenant(ctx, tenantID)
	if err != nil {
		return entity.Failed(err.Error())
	}
	log := e.log.With().Str("tenant_id", tenantID).Int64("invoice_number", inv.Number).Logger()

	bu, tcr := infraefi.DocumentCodes(inv.BusinessUnit, inv.TCRCode, tenant)
	invoiceNumber := infraefi.FormatInvoiceNumber(bu, inv.Number, inv.IssueDateTime.Year(), tcr)
	params := &domainefi.IICParams{
		TIN:              tenant.TIN,
		IssueDateTime:    inv.IssueDateTime,
		Number:           inv.Number,
		BusinessUnitCode: bu,
		TCRCode:          tcr,
		SoftwareCode:     tenant.SoftwareCode,
		TotalPrice:       inv.TotalPrice,
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// Modo demo: IIC sintético + XML sin firma, sin red
	// ═══════════════════════════════════════════════════════════════════════════
	if e.cfg.DemoMode {
		iic, err := e.iic.GenerateDemo(params)
		if err != nil {
			return entity.Failed(err.Error())
		}
		inv.IIC, inv.IICSignature = iic.Code, iic.Signature

		requestUUID := uuid.NewString()
		doc, err := e.builder.BuildInvoice(&infraefi.InvoiceBuildContext{
			Invoice: inv, Tenant: tenant, UUID: requestUUID, SendDateTime: e.now(),
		})
		if err != nil {
			return entity.Failed(err.Error())
		}
		requestXML, err := doc.WriteToString()
		if err != nil {
			return entity.Failed(err.Error())
		}

		inv.FIC = DemoFICPrefix + demoSuffix()
		log.Warn().Str("fic", inv.FIC).Msg("factura registrada en modo DEMO (sin validez fiscal)")
		return entity.FiscalizationResult{
			Success:       true,
			Code:          inv.FIC,
			UUID:          requestUUID,
			Demo:          true,
			IIC:           inv.IIC,
			IICSignature:  inv.IICSignature,
			InvoiceNumber: invoiceNumber,
			RequestXML:    requestXML,
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Certificado del tenant (firma del IIC y sello del XML)
	// ═══════════════════════════════════════════════════════════════════════════
	cert, err := e.certs.Get(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Msg("certificado no disponible")
		return entity.Failed(err.Error())
	}
	leaf, err := signer.Leaf(cert)
	if err != nil {
		return entity.Failed(err.Error())
	}
	if !leaf.NotAfter.After(e.now()) {
		log.Error().Time("not_after", leaf.NotAfter).Msg("certificado vencido")
		return entity.Failed(fmt.Sprintf("%v: %s", domain.ErrCertificateExpired, leaf.NotAfter.Format(time.RFC3339)))
	}
	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return entity.Failed(domain.ErrSigningKeyMissing.Error())
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. IIC (RSA-SHA256 → MD5)
	// ═══════════════════════════════════════════════════════════════════════════
	iic, err := e.iic.Generate(params, key)
	if err != nil {
		return entity.Failed(err.Error())
	}
	inv.IIC, inv.IICSignature = iic.Code, iic.Signature
	log.Debug().Str("iic", iic.Code).Msg("IIC generado")

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. XML + firma
	// ═══════════════════════════════════════════════════════════════════════════
	doc, err := e.builder.BuildInvoice(&infraefi.InvoiceBuildContext{
		Invoice: inv, Tenant: tenant, UUID: uuid.NewString(), SendDateTime: e.now(),
	})
	if err != nil {
		return entity.Failed(err.Error())
	}
	xmlBytes, err := doc.WriteToBytes()
	if err != nil {
		return entity.Failed(err.Error())
	}

	res = e.transmit(ctx, log, xmlBytes, cert, e.parser.ParseInvoice)
	res.IIC, res.IICSignature, res.InvoiceNumber = inv.IIC, inv.IICSignature, invoiceNumber
	if res.Success {
		inv.FIC = res.Code
		res.VerifyURL = infraefi.VerifyURL(e.cfg.VerifyURL, inv.IIC, tenant.TIN, inv.FIC)
		log.Info().Str("fic", inv.FIC).Str("uuid", res.UUID).Msg("factura registrada")
	} else {
		log.Warn().Strs("errors", res.Errors).Msg("factura rechazada")
	}
	return res
}

// FiscalizeDeposit registra un depósito o retiro de efectivo. Si tiene éxito, rellena dep.FCDC.
func (e *Engine) FiscalizeDeposit(ctx context.Context, dep *entity.Deposit, tenantID string) (res entity.FiscalizationResult) {
	defer e.recoverInto(&res, "deposit", tenantID)

	if dep == nil {
		return entity.Failed("deposit es obligatorio")
	}
	tenant, err := e.tenants.Tenant(ctx, tenantID)
	if err != nil {
		return entity.Failed(err.Error())
	}
	log := e.log.With().Str("tenant_id", tenantID).Str("operation", dep.Operation).Logger()

	if e.cfg.DemoMode {
		dep.FCDC = DemoFCDCPrefix + demoSuffix()
		log.Warn().Str("fcdc", dep.FCDC).Msg("depósito registrado en modo DEMO (sin validez fiscal)")
		return entity.FiscalizationResult{
			Success: true,
			Code:    dep.FCDC,
			UUID:    uuid.NewString(),
			Demo:    true,
		}
	}

	cert, err := e.certs.Get(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Msg("certificado no disponible")
		return entity.Failed(err.Error())
	}
	leaf, err := signer.Leaf(cert)
	if err != nil {
		return entity.Failed(err.Error())
	}
	if !leaf.NotAfter.After(e.now()) {
		return entity.Failed(fmt.Sprintf("%v: %s", domain.ErrCertificateExpired, leaf.NotAfter.Format(time.RFC3339)))
	}

	doc, err := e.builder.BuildDeposit(&infraefi.DepositBuildContext{
		Deposit: dep, Tenant: tenant, UUID: uuid.NewString(), SendDateTime: e.now(),
	})
	if err != nil {
		return entity.Failed(err.Error())
	}
	xmlBytes, err := doc.WriteToBytes()
	if err != nil {
		return entity.Failed(err.Error())
	}

	res = e.transmit(ctx, log, xmlBytes, cert, e.parser.ParseDeposit)
	if res.Success {
		dep.FCDC = res.Code
		log.Info().Str("fcdc", dep.FCDC).Msg("depósito registrado")
	} else {
		log.Warn().Strs("errors", res.Errors).Msg("depósito rechazado")
	}
	return res
}

// transmit firma, envía y parsea. La firma fallida es fatal: nunca se envía sin firmar.
func (e *Engine) transmit(
	ctx context.Context,
	log zerolog.Logger,
	xmlBytes []byte,
	cert tls.Certificate,
	parse func(string) entity.FiscalizationResult,
) entity.FiscalizationResult {
	signed, err := e.signer.Sign(xmlBytes, cert)
	if err != nil {
		log.Error().Err(err).Msg("error firmando XML")
		return entity.Failed(err.Error())
	}

	digest, err := infraefi.RequestDigest(signed)
	if err != nil {
		log.Warn().Err(err).Msg("no se pudo calcular el digest de la petición")
	}

	start := time.Now()
	raw, err := e.submitter.Submit(ctx, signed)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("error de transporte")
		res := entity.Failed(err.Error())
		res.RequestXML, res.RequestDigest = string(signed), digest
		return res
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("bytes", len(raw)).Msg("respuesta recibida")

	res := parse(raw)
	res.RequestXML, res.ResponseXML, res.RequestDigest = string(signed), raw, digest
	return res
}

// recoverInto convierte un panic en un resultado fallido.
func (e *Engine) recoverInto(res *entity.FiscalizationResult, kind, tenantID string) {
	if r := recover(); r != nil {
		e.log.Error().Str("tenant_id", tenantID).Str("kind", kind).Interface("panic", r).Msg("error interno en fiscalización")
		*res = entity.Failed(fmt.Sprintf("error interno: %v", r))
	}
}

// demoSuffix 16 caracteres hexadecimales en mayúsculas.
func demoSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}
