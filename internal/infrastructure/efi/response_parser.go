package efi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
)

// ResponseParser interpreta el cuerpo SOAP devuelto por el servicio.
type ResponseParser struct{}

// NewResponseParser crea el parser.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{}
}

// ParseInvoice busca un Fault y, si no lo hay, el elemento FIC.
func (p *ResponseParser) ParseInvoice(raw string) entity.FiscalizationResult {
	return p.parse(raw, pkgefi.ElementFIC)
}

// ParseDeposit igual que ParseInvoice pero contra el elemento FCDC.
func (p *ResponseParser) ParseDeposit(raw string) entity.FiscalizationResult {
	return p.parse(raw, pkgefi.ElementFCDC)
}

func (p *ResponseParser) parse(raw, codeElement string) entity.FiscalizationResult {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return entity.Failed(err.Error())
	}
	if doc.Root() == nil {
		return entity.Failed("respuesta vacía del servicio")
	}

	// las rutas sin prefijo casan con o sin namespace
	if fault := doc.FindElement("//Fault"); fault != nil {
		return entity.Failed(FaultMessage(fault))
	}

	codeEl := doc.FindElement("//" + codeElement)
	if codeEl == nil {
		return entity.Failed(codeElement + " not found in response")
	}

	return entity.FiscalizationResult{
		Success: true,
		Code:    strings.TrimSpace(codeEl.Text()),
		UUID:    responseUUID(doc),
	}
}

// FaultMessage "{descripción} (Code: {code})" si el código está en el registro,
// si no "{faultstring} (Code: {código crudo})".
func FaultMessage(fault *etree.Element) string {
	faultString := "Unknown error"
	if el := fault.FindElement("faultstring"); el != nil {
		faultString = el.Text()
	}
	var rawCode string
	if el := fault.FindElement("detail/code"); el != nil {
		rawCode = strings.TrimSpace(el.Text())
	}

	if code, err := strconv.Atoi(rawCode); err == nil {
		if desc, ok := pkgefi.DescribeError(code); ok {
			return fmt.Sprintf("%s (Code: %d)", desc, code)
		}
	}
	return fmt.Sprintf("%s (Code: %s)", faultString, rawCode)
}

// responseUUID toma Header/@UUID de la respuesta o genera uno nuevo.
func responseUUID(doc *etree.Document) string {
	for _, h := range doc.FindElements("//Header") {
		if v := h.SelectAttrValue("UUID", ""); v != "" {
			return v
		}
	}
	return uuid.NewString()
}
