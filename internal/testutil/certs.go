// Package testutil genera material criptográfico para las pruebas.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// SelfSigned certificado RSA autofirmado válido en [notBefore, notAfter].
func SelfSigned(t testing.TB, notBefore, notAfter time.Time) tls.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "Test Company", Organization: []string{"Test Company"}, Country: []string{"ME"}},
		Issuer:       pkix.Name{CommonName: "Test CA"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}
}

// Valid certificado vigente (desde ayer, vence en un año).
func Valid(t testing.TB) tls.Certificate {
	now := time.Now()
	return SelfSigned(t, now.Add(-24*time.Hour), now.AddDate(1, 0, 0))
}

// PFX empaqueta el certificado y su llave en PKCS#12 protegido con password.
func PFX(t testing.TB, cert tls.Certificate, password string) []byte {
	t.Helper()
	data, err := gopkcs12.Encode(rand.Reader, cert.PrivateKey, cert.Leaf, nil, password)
	require.NoError(t, err)
	return data
}
