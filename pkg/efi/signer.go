package efi

import "crypto/tls"

// Signer firma un XML de petición y devuelve el XML con la firma envuelta (enveloped)
// como último hijo del elemento raíz.
type Signer interface {
	// Sign toma el XML (sin firma) y el certificado de sello con llave privada.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
