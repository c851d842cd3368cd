// Firma XMLDSig envuelta (enveloped) de las peticiones de registro fiscal.
// Referencia #Request, transformaciones enveloped + exc-c14n, SHA-256 y RSA-SHA256.

package signer

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/jhoicas/efi-fiscal/internal/domain"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
	"github.com/jhoicas/efi-fiscal/pkg/logger"
)

const idAttribute = "Id"

// XMLSignerService implementa pkg/efi.Signer con goxmldsig.
type XMLSignerService struct {
	allowUnsigned bool
	log           *logger.Logger
}

// NewXMLSignerService crea el servicio. allowUnsigned solo debe activarse en modo
// demo: sin llave de sello el XML se devuelve tal cual en lugar de fallar.
func NewXMLSignerService(allowUnsigned bool, log *logger.Logger) *XMLSignerService {
	if log == nil {
		log = logger.Nop()
	}
	return &XMLSignerService{allowUnsigned: allowUnsigned, log: log.Component("xml-signer")}
}

// Sign firma el elemento raíz (Id="Request") y añade ds:Signature como último hijo.
func (s *XMLSignerService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("signer: XML vacío")
	}
	if _, ok := cert.PrivateKey.(*rsa.PrivateKey); !ok || len(cert.Certificate) == 0 {
		if s.allowUnsigned {
			s.log.Warn().Msg("sin llave de sello: el documento se envía SIN firma (modo demo)")
			return xmlBytes, nil
		}
		return nil, fmt.Errorf("signer: %w", domain.ErrSigningKeyMissing)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("signer: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("signer: documento sin raíz")
	}
	if root.SelectAttrValue(idAttribute, "") != pkgefi.RequestElementID {
		return nil, fmt.Errorf("signer: la raíz debe llevar %s=%q", idAttribute, pkgefi.RequestElementID)
	}

	ctx := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(cert))
	ctx.IdAttribute = idAttribute
	ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	if err := ctx.SetSignatureMethod(dsig.RSASHA256SignatureMethod); err != nil {
		return nil, fmt.Errorf("signer: método de firma: %w", err)
	}

	signed, err := ctx.SignEnveloped(root)
	if err != nil {
		return nil, fmt.Errorf("signer: firmar: %w", err)
	}
	doc.SetRoot(signed)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("signer: serializar: %w", err)
	}
	return out, nil
}

// Verify valida la firma envuelta contra el certificado indicado.
func (s *XMLSignerService) Verify(xmlBytes []byte, cert *x509.Certificate) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return fmt.Errorf("signer: parsear XML: %w", err)
	}
	if doc.Root() == nil {
		return fmt.Errorf("signer: documento sin raíz")
	}

	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	ctx.IdAttribute = idAttribute
	if _, err := ctx.Validate(doc.Root()); err != nil {
		return fmt.Errorf("signer: firma inválida: %w", err)
	}
	return nil
}

var _ pkgefi.Signer = (*XMLSignerService)(nil)
