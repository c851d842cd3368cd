package efi

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/go-resty/resty/v2"
)

const (
	soapNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	soapPrefix = "SOAP-ENV"

	contentTypeXML = "text/xml; charset=utf-8"
	// DefaultTimeout tope de la llamada al servicio si no se configura otro.
	DefaultTimeout = 30 * time.Second
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// Submitter define el puerto de salida hacia el servicio de fiscalización.
// Devuelve el cuerpo crudo de la respuesta (éxito o Fault); solo los fallos de red son error.
type Submitter interface {
	Submit(ctx context.Context, signedXML []byte) (string, error)
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// SOAPClient implementa Submitter con un POST SOAP 1.1 vía resty. No reintenta.
type SOAPClient struct {
	client   *resty.Client
	endpoint string
}

// NewSOAPClient construye el cliente con un timeout acotado (DefaultTimeout si timeout <= 0).
func NewSOAPClient(endpoint string, timeout time.Duration) *SOAPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SOAPClient{
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
	}
}

// Submit envuelve el XML firmado en el sobre SOAP y lo envía al endpoint configurado.
// Las respuestas no-2xx se devuelven igualmente: el servicio responde los Fault con HTTP 500.
func (c *SOAPClient) Submit(ctx context.Context, signedXML []byte) (string, error) {
	payload, err := BuildEnvelope(signedXML)
	if err != nil {
		return "", err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentTypeXML).
		SetHeader("SOAPAction", "").
		SetBody(payload).
		Post(c.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	return resp.String(), nil
}

// BuildEnvelope SOAP 1.1: cabecera vacía y el documento firmado como único hijo de Body.
func BuildEnvelope(signedXML []byte) ([]byte, error) {
	signed := etree.NewDocument()
	if err := signed.ReadFromBytes(signedXML); err != nil {
		return nil, fmt.Errorf("soap: parsear XML firmado: %w", err)
	}
	if signed.Root() == nil {
		return nil, fmt.Errorf("soap: documento firmado sin raíz")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement(soapPrefix + ":Envelope")
	env.CreateAttr("xmlns:"+soapPrefix, soapNS)
	env.CreateElement(soapPrefix + ":Header")
	body := env.CreateElement(soapPrefix + ":Body")
	body.AddChild(signed.Root())

	return doc.WriteToBytes()
}

var _ Submitter = (*SOAPClient)(nil)
