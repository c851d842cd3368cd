package efi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
)

var hundred = decimal.NewFromInt(100)

// XMLBuilderService construye los documentos de petición (sin firma) como árbol etree.
// Los valores de atributo se escapan al serializar (& < > " ').
type XMLBuilderService struct {
	namespace string
}

// NewXMLBuilderService crea el servicio para el namespace del esquema configurado.
func NewXMLBuilderService(namespace string) *XMLBuilderService {
	return &XMLBuilderService{namespace: namespace}
}

// BuildInvoice genera el documento RegisterInvoiceRequest.
func (s *XMLBuilderService) BuildInvoice(ctx *InvoiceBuildContext) (*etree.Document, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Tenant == nil {
		return nil, fmt.Errorf("efi: faltan invoice o tenant en el contexto")
	}
	inv, tenant := ctx.Invoice, ctx.Tenant
	bu, tcr := DocumentCodes(inv.BusinessUnit, inv.TCRCode, tenant)

	doc, root := s.newRequest(pkgefi.RegisterInvoiceRequest, ctx.UUID, ctx.SendDateTime)

	el := root.CreateElement("Invoice")
	el.CreateAttr("InvType", InvoiceKind(inv))
	el.CreateAttr("TypeOfInv", typeOfInv(inv.IsCash))
	el.CreateAttr("IssueDateTime", pkgefi.FormatDateTime(inv.IssueDateTime))
	el.CreateAttr("InvNum", FormatInvoiceNumber(bu, inv.Number, inv.IssueDateTime.Year(), tcr))
	el.CreateAttr("InvOrdNum", strconv.FormatInt(inv.Number, 10))
	el.CreateAttr("TCRCode", tcr)
	el.CreateAttr("IsIssuerInVAT", strconv.FormatBool(tenant.IsInVAT))
	if !tenant.IsInVAT {
		el.CreateAttr("TaxFreeAmt", pkgefi.Amount2(inv.TotalWithoutVAT))
	}
	el.CreateAttr("TotPriceWoVAT", pkgefi.Amount2(inv.TotalWithoutVAT))
	if tenant.IsInVAT {
		el.CreateAttr("TotVATAmt", pkgefi.Amount2(inv.TotalVAT))
	}
	el.CreateAttr("TotPrice", pkgefi.Amount2(inv.TotalPrice))
	el.CreateAttr("OperatorCode", operatorCode(inv.Operator))
	el.CreateAttr("BusinUnitCode", bu)
	el.CreateAttr("SoftCode", tenant.SoftwareCode)
	el.CreateAttr("IsReverseCharge", strconv.FormatBool(inv.IsReverseCharge))
	el.CreateAttr("IIC", inv.IIC)
	el.CreateAttr("IICSignature", inv.IICSignature)

	if inv.Corrective != nil {
		writeCorrective(el, inv.Corrective)
	}
	if len(inv.PaymentMethods) > 0 {
		writePayMethods(el, inv.PaymentMethods)
	}
	writeSeller(el, tenant)
	if inv.Buyer != nil {
		writeBuyer(el, inv.Buyer)
	}
	if len(inv.Items) > 0 {
		writeItems(el, inv.Items, tenant.IsInVAT)
		if tenant.IsInVAT {
			writeSameTaxes(el, inv.Items)
		}
	}

	return doc, nil
}

// BuildDeposit genera el documento RegisterCashDepositRequest.
func (s *XMLBuilderService) BuildDeposit(ctx *DepositBuildContext) (*etree.Document, error) {
	if ctx == nil || ctx.Deposit == nil || ctx.Tenant == nil {
		return nil, fmt.Errorf("efi: faltan deposit o tenant en el contexto")
	}
	dep, tenant := ctx.Deposit, ctx.Tenant
	_, tcr := DocumentCodes(dep.BusinessUnit, dep.TCRCode, tenant)

	doc, root := s.newRequest(pkgefi.RegisterCashDepositRequest, ctx.UUID, ctx.SendDateTime)

	el := root.CreateElement("CashDeposit")
	el.CreateAttr("ChangeDateTime", pkgefi.FormatDateTime(dep.ChangeDateTime))
	el.CreateAttr("Operation", dep.Operation)
	el.CreateAttr("CashAmt", pkgefi.Amount2(dep.Amount.Abs()))
	el.CreateAttr("TCRCode", tcr)
	el.CreateAttr("IssuerTIN", tenant.TIN)

	return doc, nil
}

// newRequest crea la raíz con Id="Request" (destino de la referencia de la firma) y el Header.
func (s *XMLBuilderService) newRequest(rootTag, uuid string, sendDateTime time.Time) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns", s.namespace)
	root.CreateAttr("Id", pkgefi.RequestElementID)
	root.CreateAttr("Version", pkgefi.MessageVersion)

	header := root.CreateElement("Header")
	header.CreateAttr("UUID", uuid)
	header.CreateAttr("SendDateTime", pkgefi.FormatDateTime(sendDateTime))
	return doc, root
}

// InvoiceKind clasifica la factura: CORRECTIVE si hay referencia, luego SUMMARY/ADVANCE, si no INVOICE.
func InvoiceKind(inv *entity.Invoice) string {
	if inv.Corrective != nil {
		return pkgefi.InvTypeCorrective
	}
	switch inv.Type {
	case entity.InvoiceTypeSummary:
		return pkgefi.InvTypeSummary
	case entity.InvoiceTypeAdvance:
		return pkgefi.InvTypeAdvance
	default:
		return pkgefi.InvTypeInvoice
	}
}

// FormatInvoiceNumber número de factura: {unidad}/{número}/{año}/{tcr}.
func FormatInvoiceNumber(businessUnit string, number int64, year int, tcrCode string) string {
	return fmt.Sprintf("%s/%d/%d/%s", businessUnit, number, year, tcrCode)
}

func typeOfInv(isCash bool) string {
	if isCash {
		return pkgefi.TypeOfInvCash
	}
	return pkgefi.TypeOfInvNonCash
}

func operatorCode(op *entity.Operator) string {
	if op == nil || op.Code == "" {
		return pkgefi.DefaultOperatorCode
	}
	return op.Code
}

func writeCorrective(parent *etree.Element, c *entity.CorrectiveInvoice) {
	kind := c.Type
	if kind == "" {
		kind = pkgefi.CorrectiveTypeCorrective
	}
	el := parent.CreateElement("CorrectiveInv")
	el.CreateAttr("IICRef", c.IICRef)
	el.CreateAttr("IssueDateTime", pkgefi.FormatDateTime(c.IssueDateTime))
	el.CreateAttr("Type", kind)
}

func writePayMethods(parent *etree.Element, methods []entity.PaymentMethod) {
	pms := parent.CreateElement("PayMethods")
	for _, pm := range methods {
		el := pms.CreateElement("PayMethod")
		el.CreateAttr("Type", pm.Type)
		el.CreateAttr("Amt", pkgefi.Amount2(pm.Amount))
		if pm.AdvanceIIC != "" {
			el.CreateAttr("AdvIIC", pm.AdvanceIIC)
		}
		if pm.CompanyCard != "" {
			el.CreateAttr("CompCard", pm.CompanyCard)
		}
	}
}

func writeSeller(parent *etree.Element, t *entity.Tenant) {
	el := parent.CreateElement("Seller")
	el.CreateAttr("IDType", pkgefi.IDTypeTIN)
	el.CreateAttr("IDNum", t.TIN)
	el.CreateAttr("Name", t.SellerName)
	el.CreateAttr("Address", t.SellerAddress)
	el.CreateAttr("Town", t.SellerTown)
	el.CreateAttr("Country", t.SellerCountry)
}

func writeBuyer(parent *etree.Element, b *entity.Buyer) {
	el := parent.CreateElement("Buyer")
	el.CreateAttr("IDType", b.IDType)
	el.CreateAttr("IDNum", b.IDNum)
	el.CreateAttr("Name", b.Name)
	if b.Address != "" {
		el.CreateAttr("Address", b.Address)
	}
	if b.Town != "" {
		el.CreateAttr("Town", b.Town)
	}
	if b.Country != "" {
		el.CreateAttr("Country", b.Country)
	}
}

func writeItems(parent *etree.Element, items []entity.InvoiceItem, inVAT bool) {
	list := parent.CreateElement("Items")
	for _, it := range items {
		unit := it.Unit
		if unit == "" {
			unit = pkgefi.DefaultUnit
		}
		rebate := decimal.Zero
		if it.Rebate != nil {
			rebate = *it.Rebate
		}
		priceAfterVAT := it.PriceBeforeVAT.Mul(decimal.NewFromInt(1).Add(it.VATRate.Div(hundred)))

		el := list.CreateElement("I")
		el.CreateAttr("N", truncateName(it.Name))
		el.CreateAttr("C", it.Code)
		el.CreateAttr("U", unit)
		el.CreateAttr("Q", pkgefi.Quantity3(it.Quantity))
		el.CreateAttr("UPB", pkgefi.Amount4(it.PriceBeforeVAT))
		el.CreateAttr("UPA", pkgefi.Amount4(priceAfterVAT))
		el.CreateAttr("R", pkgefi.Amount4(rebate))
		el.CreateAttr("RR", "false")
		el.CreateAttr("PB", pkgefi.Amount4(it.PriceBeforeVAT.Mul(it.Quantity)))
		if inVAT {
			el.CreateAttr("VR", pkgefi.Amount4(it.VATRate))
			el.CreateAttr("VA", pkgefi.Amount4(it.VATAmount))
		}
		if it.ExemptionCode != "" {
			el.CreateAttr("EX", it.ExemptionCode)
		}
		el.CreateAttr("PA", pkgefi.Amount4(it.TotalPrice))
	}
}

// VATGroup fila SameTax: agrupación por tasa exacta en orden de primera aparición.
type VATGroup struct {
	Rate      decimal.Decimal
	NumItems  int
	BaseTotal decimal.Decimal // suma de UPB*Q
	VATAmount decimal.Decimal
}

// GroupByVATRate agrupa las líneas por tasa de IVA preservando el orden de aparición.
func GroupByVATRate(items []entity.InvoiceItem) []VATGroup {
	var groups []VATGroup
	for _, it := range items {
		idx := -1
		for i := range groups {
			if groups[i].Rate.Equal(it.VATRate) {
				idx = i
				break
			}
		}
		if idx < 0 {
			groups = append(groups, VATGroup{Rate: it.VATRate})
			idx = len(groups) - 1
		}
		g := &groups[idx]
		g.NumItems++
		g.BaseTotal = g.BaseTotal.Add(it.PriceBeforeVAT.Mul(it.Quantity))
		g.VATAmount = g.VATAmount.Add(it.VATAmount)
	}
	return groups
}

func writeSameTaxes(parent *etree.Element, items []entity.InvoiceItem) {
	list := parent.CreateElement("SameTaxes")
	for _, g := range GroupByVATRate(items) {
		el := list.CreateElement("SameTax")
		el.CreateAttr("NumOfItems", strconv.Itoa(g.NumItems))
		el.CreateAttr("PriceBefVAT", pkgefi.Amount2(g.BaseTotal))
		el.CreateAttr("VATRate", pkgefi.Amount2(g.Rate))
		el.CreateAttr("VATAmt", pkgefi.Amount2(g.VATAmount))
	}
}

// truncateName normaliza a NFC y recorta a 40 caracteres (runas, no bytes).
func truncateName(name string) string {
	r := []rune(norm.NFC.String(name))
	if len(r) > pkgefi.MaxItemNameLength {
		r = r[:pkgefi.MaxItemNameLength]
	}
	return string(r)
}
