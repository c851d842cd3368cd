// Carga de certificados PKCS#12 (.pfx / .p12) con su llave privada.

package signer

import (
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// DecodeP12 decodifica un contenedor PKCS#12 en memoria.
// Primero intenta el decodificador de x/crypto (certificado + llave); si el
// archivo trae cadena de CA o usa cifrado moderno, recurre a go-pkcs12.
func DecodeP12(data []byte, password string) (tls.Certificate, error) {
	if len(data) == 0 {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: contenido vacío")
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err == nil {
		return tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  priv,
			Leaf:        cert,
		}, nil
	}

	priv, leaf, chain, chainErr := gopkcs12.DecodeChain(data, password)
	if chainErr != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	raw := [][]byte{leaf.Raw}
	for _, ca := range chain {
		raw = append(raw, ca.Raw)
	}
	return tls.Certificate{Certificate: raw, PrivateKey: priv, Leaf: leaf}, nil
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	return DecodeP12(data, password)
}

// Leaf devuelve el certificado hoja, parseándolo si hace falta.
func Leaf(cert tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificado sin contenido")
	}
	return x509.ParseCertificate(cert.Certificate[0])
}

// Thumbprint huella SHA-1 del certificado en hexadecimal mayúsculas.
func Thumbprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
