package fiscal_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/efi-fiscal/internal/application/fiscal"
	"github.com/jhoicas/efi-fiscal/internal/domain"
	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	infraefi "github.com/jhoicas/efi-fiscal/internal/infrastructure/efi"
	"github.com/jhoicas/efi-fiscal/internal/infrastructure/efi/signer"
	"github.com/jhoicas/efi-fiscal/internal/testutil"
	"github.com/jhoicas/efi-fiscal/pkg/config"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeSubmitter struct {
	mu     sync.Mutex
	raw    string
	err    error
	calls  int
	signed []byte
}

func (f *fakeSubmitter) Submit(_ context.Context, signedXML []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.signed = signedXML
	return f.raw, f.err
}

// failingSubmitter falla el test si el motor intenta salir a la red.
type failingSubmitter struct{ t *testing.T }

func (f failingSubmitter) Submit(context.Context, []byte) (string, error) {
	f.t.Fatal("no se esperaba ninguna llamada de red")
	return "", nil
}

type fakeCerts struct {
	cert tls.Certificate
	err  error
}

func (f fakeCerts) Get(context.Context, string) (tls.Certificate, error) {
	return f.cert, f.err
}

type panicTenants struct{}

func (panicTenants) Tenant(context.Context, string) (*entity.Tenant, error) {
	panic("directorio roto")
}

const tenantID = "tenant-1"

func testDirectory() *fiscal.StaticTenantDirectory {
	return fiscal.NewStaticTenantDirectory(entity.Tenant{
		ID:               tenantID,
		TIN:              "02004003",
		BusinessUnitCode: "bb123bb123",
		TCRCode:          "cc123cc123",
		SoftwareCode:     "ss123ss123",
		MaintainerCode:   "mm123mm123",
		IsInVAT:          true,
		SellerName:       "Test Company",
		SellerAddress:    "Test Address 1",
		SellerTown:       "Podgorica",
		SellerCountry:    "MNE",
	})
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cashInvoice() *entity.Invoice {
	return &entity.Invoice{
		Number:          1001,
		IssueDateTime:   time.Date(2025, 1, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600)),
		TotalWithoutVAT: d("130.25"),
		TotalVAT:        d("27.35"),
		TotalPrice:      d("157.60"),
		IsCash:          true,
		Items: []entity.InvoiceItem{
			{Name: "Product A", Code: "001", Quantity: d("1"), PriceBeforeVAT: d("130.25"), VATRate: d("21"), VATAmount: d("27.35"), TotalPrice: d("157.60")},
		},
		PaymentMethods: []entity.PaymentMethod{{Type: "CASH", Amount: d("157.60")}},
	}
}

func demoEngine(t *testing.T) *fiscal.Engine {
	t.Helper()
	e, err := fiscal.NewEngine(fiscal.Dependencies{
		Tenants:   testDirectory(),
		Submitter: failingSubmitter{t: t},
	}, fiscal.EngineConfig{DemoMode: true, Environment: config.AuthorityEnvTest, Namespace: "https://efi.tax.gov.me/fs/schema"})
	require.NoError(t, err)
	return e
}

func productionEngine(t *testing.T, certs fiscal.CertificateSource, sub infraefi.Submitter) *fiscal.Engine {
	t.Helper()
	e, err := fiscal.NewEngine(fiscal.Dependencies{
		Tenants:      testDirectory(),
		Certificates: certs,
		Signer:       signer.NewXMLSignerService(false, nil),
		Submitter:    sub,
	}, fiscal.EngineConfig{
		Environment: config.AuthorityEnvTest,
		Namespace:   "https://efi.tax.gov.me/fs/schema",
		VerifyURL:   "https://efi.tax.gov.me/fs-v1/verify",
	})
	require.NoError(t, err)
	return e
}

const ficResponse = `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Body>` +
	`<RegisterInvoiceResponse xmlns="https://efi.tax.gov.me/fs/schema"><Header UUID="resp-uuid"/><FIC>fic-123</FIC></RegisterInvoiceResponse>` +
	`</env:Body></env:Envelope>`

const fcdcResponse = `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Body>` +
	`<RegisterCashDepositResponse xmlns="https://efi.tax.gov.me/fs/schema"><Header UUID="dep-uuid"/><FCDC>fcdc-9</FCDC></RegisterCashDepositResponse>` +
	`</env:Body></env:Envelope>`

const fault36 = `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Body><env:Fault>` +
	`<faultcode>env:Server</faultcode><faultstring>Cert</faultstring><detail><code>36</code></detail>` +
	`</env:Fault></env:Body></env:Envelope>`

// ──────────────────────────────────────────────────────────────────────────────
// Configuración
// ──────────────────────────────────────────────────────────────────────────────

func TestNewEngine_DemoContraProduccionSeRechaza(t *testing.T) {
	_, err := fiscal.NewEngine(fiscal.Dependencies{Tenants: testDirectory()},
		fiscal.EngineConfig{DemoMode: true, Environment: config.AuthorityEnvProduction})
	assert.ErrorIs(t, err, domain.ErrDemoModeInProduction)
}

func TestNewEngine_ProduccionSinDependencias(t *testing.T) {
	_, err := fiscal.NewEngine(fiscal.Dependencies{Tenants: testDirectory()},
		fiscal.EngineConfig{Environment: config.AuthorityEnvTest})
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Modo demo
// ──────────────────────────────────────────────────────────────────────────────

func TestFiscalizeInvoice_DemoSinRed(t *testing.T) {
	inv := cashInvoice()
	res := demoEngine(t).FiscalizeInvoice(context.Background(), inv, tenantID)

	require.True(t, res.Success, res.Errors)
	assert.True(t, res.Demo)
	assert.True(t, strings.HasPrefix(res.Code, fiscal.DemoFICPrefix))
	assert.Len(t, res.Code, len(fiscal.DemoFICPrefix)+16)
	_, err := uuid.Parse(res.UUID)
	assert.NoError(t, err)

	assert.Equal(t, res.Code, inv.FIC)
	assert.Len(t, inv.IIC, 32)
	assert.NotEmpty(t, inv.IICSignature)
	assert.Equal(t, "bb123bb123/1001/2025/cc123cc123", res.InvoiceNumber)
	assert.Contains(t, res.RequestXML, `TotPrice="157.60"`)
	assert.NotContains(t, res.RequestXML, "Signature>")
}

func TestFiscalizeDeposit_Demo(t *testing.T) {
	dep := &entity.Deposit{Operation: "INITIAL", Amount: d("100"), ChangeDateTime: time.Now()}
	res := demoEngine(t).FiscalizeDeposit(context.Background(), dep, tenantID)

	require.True(t, res.Success)
	assert.True(t, res.Demo)
	assert.True(t, strings.HasPrefix(dep.FCDC, fiscal.DemoFCDCPrefix))
	assert.Equal(t, dep.FCDC, res.Code)
}

func TestFiscalize_TenantDesconocido(t *testing.T) {
	res := demoEngine(t).FiscalizeInvoice(context.Background(), cashInvoice(), "otro")
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], domain.ErrTenantNotFound.Error())
}

func TestFiscalize_PanicSeConvierteEnFallo(t *testing.T) {
	e, err := fiscal.NewEngine(fiscal.Dependencies{Tenants: panicTenants{}},
		fiscal.EngineConfig{DemoMode: true, Environment: config.AuthorityEnvTest})
	require.NoError(t, err)

	res := e.FiscalizeInvoice(context.Background(), cashInvoice(), tenantID)
	assert.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "directorio roto")
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo real: firma + envío + parseo
// ──────────────────────────────────────────────────────────────────────────────

func TestFiscalizeInvoice_ProduccionExitosa(t *testing.T) {
	cert := testutil.Valid(t)
	sub := &fakeSubmitter{raw: ficResponse}
	inv := cashInvoice()

	res := productionEngine(t, fakeCerts{cert: cert}, sub).FiscalizeInvoice(context.Background(), inv, tenantID)

	require.True(t, res.Success, res.Errors)
	assert.False(t, res.Demo)
	assert.Equal(t, "fic-123", res.Code)
	assert.Equal(t, "resp-uuid", res.UUID)
	assert.Equal(t, "fic-123", inv.FIC)
	assert.Len(t, inv.IIC, 32)
	assert.Len(t, inv.IICSignature, 512)
	assert.Equal(t, "https://efi.tax.gov.me/fs-v1/verify?iic="+inv.IIC+"&tin=02004003&fic=fic-123", res.VerifyURL)
	assert.NotEmpty(t, res.RequestDigest)
	assert.Equal(t, ficResponse, res.ResponseXML)

	// lo transmitido está firmado y verifica contra el certificado
	require.Equal(t, 1, sub.calls)
	assert.NoError(t, signer.NewXMLSignerService(false, nil).Verify(sub.signed, cert.Leaf))
	assert.Contains(t, string(sub.signed), `IIC="`+inv.IIC+`"`)
}

func TestFiscalizeInvoice_FaultMapeado(t *testing.T) {
	sub := &fakeSubmitter{raw: fault36}
	inv := cashInvoice()
	res := productionEngine(t, fakeCerts{cert: testutil.Valid(t)}, sub).FiscalizeInvoice(context.Background(), inv, tenantID)

	assert.False(t, res.Success)
	assert.Equal(t, []string{"Certificate expired (Code: 36)"}, res.Errors)
	assert.Empty(t, inv.FIC)
}

func TestFiscalizeInvoice_ErrorDeTransporte(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	res := productionEngine(t, fakeCerts{cert: testutil.Valid(t)}, sub).FiscalizeInvoice(context.Background(), cashInvoice(), tenantID)

	assert.False(t, res.Success)
	assert.Equal(t, []string{"connection refused"}, res.Errors)
	assert.NotEmpty(t, res.RequestXML)
}

func TestFiscalizeInvoice_SinCertificado(t *testing.T) {
	certs := fakeCerts{err: domain.ErrCertificateNotFound}
	res := productionEngine(t, certs, failingSubmitter{t: t}).FiscalizeInvoice(context.Background(), cashInvoice(), tenantID)

	assert.False(t, res.Success)
	assert.Equal(t, []string{domain.ErrCertificateNotFound.Error()}, res.Errors)
}

func TestFiscalizeInvoice_CertificadoVencidoNoSeEnvia(t *testing.T) {
	now := time.Now()
	expired := testutil.SelfSigned(t, now.AddDate(-1, 0, 0), now.Add(-time.Hour))
	res := productionEngine(t, fakeCerts{cert: expired}, failingSubmitter{t: t}).FiscalizeInvoice(context.Background(), cashInvoice(), tenantID)

	assert.False(t, res.Success)
	assert.Contains(t, res.Errors[0], domain.ErrCertificateExpired.Error())
}

func TestFiscalizeInvoice_CertificadoSinLlave(t *testing.T) {
	cert := testutil.Valid(t)
	cert.PrivateKey = nil
	res := productionEngine(t, fakeCerts{cert: cert}, failingSubmitter{t: t}).FiscalizeInvoice(context.Background(), cashInvoice(), tenantID)

	assert.False(t, res.Success)
	assert.Equal(t, []string{domain.ErrSigningKeyMissing.Error()}, res.Errors)
}

func TestFiscalizeDeposit_ProduccionExitosa(t *testing.T) {
	sub := &fakeSubmitter{raw: fcdcResponse}
	dep := &entity.Deposit{Operation: "WITHDRAW", Amount: d("-50"), ChangeDateTime: time.Now()}
	res := productionEngine(t, fakeCerts{cert: testutil.Valid(t)}, sub).FiscalizeDeposit(context.Background(), dep, tenantID)

	require.True(t, res.Success, res.Errors)
	assert.Equal(t, "fcdc-9", dep.FCDC)
	assert.Equal(t, "dep-uuid", res.UUID)
	assert.Contains(t, string(sub.signed), `CashAmt="50.00"`)
}

// Extremo a extremo con el cliente SOAP real contra un servicio falso.
func TestFiscalizeInvoice_ContraServicioHTTP(t *testing.T) {
	var gotEnvelope string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		gotEnvelope = buf.String()
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(ficResponse))
	}))
	defer srv.Close()

	e := productionEngine(t, fakeCerts{cert: testutil.Valid(t)}, infraefi.NewSOAPClient(srv.URL, time.Second))
	res := e.FiscalizeInvoice(context.Background(), cashInvoice(), tenantID)

	require.True(t, res.Success, res.Errors)
	assert.Contains(t, gotEnvelope, "<SOAP-ENV:Body><RegisterInvoiceRequest")
	assert.Contains(t, gotEnvelope, "SignatureValue")
}

// ──────────────────────────────────────────────────────────────────────────────
// Generador de factura demo
// ──────────────────────────────────────────────────────────────────────────────

func TestDemoInvoice_ImportesDerivadosDeLasLineas(t *testing.T) {
	inv := fiscal.DemoInvoice(4242, time.Now())

	require.Len(t, inv.Items, 2)
	assert.True(t, inv.IsCash)
	assert.Equal(t, "130.00", inv.TotalWithoutVAT.StringFixed(2))
	assert.Equal(t, "27.30", inv.TotalVAT.StringFixed(2))
	assert.Equal(t, "157.30", inv.TotalPrice.StringFixed(2))
	assert.True(t, inv.PaymentMethods[0].Amount.Equal(inv.TotalPrice))
	assert.Equal(t, "21.00", inv.Items[0].VATAmount.StringFixed(2))

	res := demoEngine(t).FiscalizeInvoice(context.Background(), inv, tenantID)
	assert.True(t, res.Success)
}

func TestStaticTenantDirectory_DesdeConfig(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)
	dir := fiscal.NewStaticTenantDirectory(fiscal.TenantFromConfig(fiscal.DefaultTenantID, cfg.Fiscal))

	tenant, err := dir.Tenant(context.Background(), fiscal.DefaultTenantID)
	require.NoError(t, err)
	assert.Equal(t, "02004003", tenant.TIN)
	assert.Equal(t, "MNE", tenant.SellerCountry)
}
