// Package efi: cálculo del IIC (Invoice Identification Code) y su firma.
// Cadena: TIN|IssueDateTime|Number|BusinessUnit|TCRCode|SoftwareCode|TotalPrice
// Firma RSA PKCS#1 v1.5 con SHA-256; el IIC es el MD5 de los bytes de la firma.

package efi

import (
	"crypto"
	"crypto/md5"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-fiscal/internal/domain"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
)

// IICParams contiene los datos que identifican la factura, en el orden exigido.
type IICParams struct {
	TIN              string          // NIF del emisor
	IssueDateTime    time.Time       // Fecha y hora de emisión (con desfase)
	Number           int64           // Número secuencial de la factura
	BusinessUnitCode string          // Código de unidad de negocio
	TCRCode          string          // Código del TCR
	SoftwareCode     string          // Código del software
	TotalPrice       decimal.Decimal // Total con IVA
}

// IICResult par (IIC, firma del IIC) en hexadecimal mayúsculas.
type IICResult struct {
	Code      string
	Signature string
	Demo      bool // true si se generó sin llave (no autoritativo)
}

// IICGeneratorService calcula el IIC. No guarda estado: es seguro para uso concurrente.
type IICGeneratorService struct{}

// NewIICGeneratorService crea el servicio.
func NewIICGeneratorService() *IICGeneratorService {
	return &IICGeneratorService{}
}

// Input construye la cadena canónica separada por '|' que se firma.
func (s *IICGeneratorService) Input(p *IICParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: IICParams es obligatorio", domain.ErrInvalidInput)
	}
	tin := strings.TrimSpace(p.TIN)
	if tin == "" {
		return "", fmt.Errorf("%w: TIN es obligatorio para el IIC", domain.ErrInvalidInput)
	}
	if p.IssueDateTime.IsZero() {
		return "", fmt.Errorf("%w: IssueDateTime es obligatorio para el IIC", domain.ErrInvalidInput)
	}
	if p.BusinessUnitCode == "" || p.TCRCode == "" || p.SoftwareCode == "" {
		return "", fmt.Errorf("%w: BusinessUnitCode, TCRCode y SoftwareCode son obligatorios", domain.ErrInvalidInput)
	}

	return strings.Join([]string{
		tin,
		pkgefi.FormatDateTime(p.IssueDateTime),
		strconv.FormatInt(p.Number, 10),
		p.BusinessUnitCode,
		p.TCRCode,
		p.SoftwareCode,
		pkgefi.Amount2(p.TotalPrice),
	}, "|"), nil
}

// Generate firma la cadena con la llave del certificado de firma y deriva el IIC.
// RSA PKCS#1 v1.5 es determinista: mismos datos y misma llave, mismo resultado.
func (s *IICGeneratorService) Generate(p *IICParams, key *rsa.PrivateKey) (IICResult, error) {
	if key == nil {
		return IICResult{}, domain.ErrSigningKeyMissing
	}
	input, err := s.Input(p)
	if err != nil {
		return IICResult{}, err
	}

	digest := sha256.Sum256([]byte(input))
	sig, err := rsa.SignPKCS1v15(nil, key, crypto.SHA256, digest[:])
	if err != nil {
		return IICResult{}, fmt.Errorf("efi: firmar IIC: %w", err)
	}
	code := md5.Sum(sig)

	return IICResult{
		Code:      strings.ToUpper(hex.EncodeToString(code[:])),
		Signature: strings.ToUpper(hex.EncodeToString(sig)),
	}, nil
}

// GenerateDemo sustituto sin llave para modo demo: SHA-256 de la cadena.
// No es válido ante la administración tributaria.
func (s *IICGeneratorService) GenerateDemo(p *IICParams) (IICResult, error) {
	input, err := s.Input(p)
	if err != nil {
		return IICResult{}, err
	}
	hash := sha256.Sum256([]byte(input))
	return IICResult{
		Code:      strings.ToUpper(hex.EncodeToString(hash[:]))[:32],
		Signature: base64.StdEncoding.EncodeToString(hash[:]),
		Demo:      true,
	}, nil
}
