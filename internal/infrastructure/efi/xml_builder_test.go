package efi_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	"github.com/jhoicas/efi-fiscal/internal/infrastructure/efi"
)

const testNamespace = "https://efi.tax.gov.me/fs/schema"

var testIssue = time.Date(2025, 1, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testTenant() *entity.Tenant {
	return &entity.Tenant{
		ID:               "tenant-1",
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
	}
}

// Dos líneas al 21% y una al 7%.
func testInvoice() *entity.Invoice {
	return &entity.Invoice{
		Number:          1001,
		IssueDateTime:   testIssue,
		TotalWithoutVAT: d("100.00"),
		TotalVAT:        d("19.60"),
		TotalPrice:      d("119.60"),
		IsCash:          true,
		Items: []entity.InvoiceItem{
			{Name: "Producto A", Code: "A1", Unit: "PCS", Quantity: d("1"), PriceBeforeVAT: d("50"), VATRate: d("21"), VATAmount: d("10.50"), TotalPrice: d("60.50")},
			{Name: "Producto B", Code: "B1", Quantity: d("2"), PriceBeforeVAT: d("20"), VATRate: d("21"), VATAmount: d("8.40"), TotalPrice: d("48.40")},
			{Name: "Producto C", Code: "C1", Unit: "KG", Quantity: d("1"), PriceBeforeVAT: d("10"), VATRate: d("7"), VATAmount: d("0.70"), TotalPrice: d("10.70")},
		},
		PaymentMethods: []entity.PaymentMethod{{Type: "CASH", Amount: d("119.60")}},
		IIC:            "ABCDEF0123456789ABCDEF0123456789",
		IICSignature:   "00FF",
	}
}

func buildInvoice(t *testing.T, inv *entity.Invoice, tenant *entity.Tenant) *etree.Document {
	t.Helper()
	doc, err := efi.NewXMLBuilderService(testNamespace).BuildInvoice(&efi.InvoiceBuildContext{
		Invoice:      inv,
		Tenant:       tenant,
		UUID:         "6f1c5a5e-6a8e-4a53-9c55-8d3c8e0d5d7a",
		SendDateTime: testIssue,
	})
	require.NoError(t, err)
	return doc
}

func attr(el *etree.Element, key string) string {
	return el.SelectAttrValue(key, "")
}

// ──────────────────────────────────────────────────────────────────────────────
// Estructura de RegisterInvoiceRequest
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildInvoice_RaizYHeader(t *testing.T) {
	doc := buildInvoice(t, testInvoice(), testTenant())
	root := doc.Root()

	require.NotNil(t, root)
	assert.Equal(t, "RegisterInvoiceRequest", root.Tag)
	assert.Equal(t, testNamespace, attr(root, "xmlns"))
	assert.Equal(t, "Request", attr(root, "Id"))
	assert.Equal(t, "1", attr(root, "Version"))

	header := root.SelectElement("Header")
	require.NotNil(t, header)
	assert.Equal(t, "6f1c5a5e-6a8e-4a53-9c55-8d3c8e0d5d7a", attr(header, "UUID"))
	assert.Equal(t, "2025-01-15T10:30:00+01:00", attr(header, "SendDateTime"))
}

func TestBuildInvoice_AtributosEmisorConIVA(t *testing.T) {
	doc := buildInvoice(t, testInvoice(), testTenant())
	inv := doc.FindElement("//Invoice")
	require.NotNil(t, inv)

	assert.Equal(t, "INVOICE", attr(inv, "InvType"))
	assert.Equal(t, "CASH", attr(inv, "TypeOfInv"))
	assert.Equal(t, "bb123bb123/1001/2025/cc123cc123", attr(inv, "InvNum"))
	assert.Equal(t, "1001", attr(inv, "InvOrdNum"))
	assert.Equal(t, "true", attr(inv, "IsIssuerInVAT"))
	assert.Equal(t, "100.00", attr(inv, "TotPriceWoVAT"))
	assert.Equal(t, "19.60", attr(inv, "TotVATAmt"))
	assert.Equal(t, "119.60", attr(inv, "TotPrice"))
	assert.Equal(t, "op123", attr(inv, "OperatorCode"))
	assert.Equal(t, "ss123ss123", attr(inv, "SoftCode"))
	assert.Equal(t, "ABCDEF0123456789ABCDEF0123456789", attr(inv, "IIC"))
	assert.Nil(t, inv.SelectAttr("TaxFreeAmt"))

	// el orden de atributos es parte del contrato con el esquema
	var keys []string
	for _, a := range inv.Attr {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{
		"InvType", "TypeOfInv", "IssueDateTime", "InvNum", "InvOrdNum", "TCRCode",
		"IsIssuerInVAT", "TotPriceWoVAT", "TotVATAmt", "TotPrice", "OperatorCode",
		"BusinUnitCode", "SoftCode", "IsReverseCharge", "IIC", "IICSignature",
	}, keys)
}

func TestBuildInvoice_LineasConIVA(t *testing.T) {
	doc := buildInvoice(t, testInvoice(), testTenant())
	items := doc.FindElements("//Items/I")
	require.Len(t, items, 3)

	b := items[1]
	assert.Equal(t, "Producto B", attr(b, "N"))
	assert.Equal(t, "PCS", attr(b, "U"), "unidad por defecto")
	assert.Equal(t, "2.000", attr(b, "Q"))
	assert.Equal(t, "20.0000", attr(b, "UPB"))
	assert.Equal(t, "24.2000", attr(b, "UPA"))
	assert.Equal(t, "0.0000", attr(b, "R"))
	assert.Equal(t, "false", attr(b, "RR"))
	assert.Equal(t, "40.0000", attr(b, "PB"))
	assert.Equal(t, "21.0000", attr(b, "VR"))
	assert.Equal(t, "8.4000", attr(b, "VA"))
	assert.Equal(t, "48.4000", attr(b, "PA"))
}

func TestBuildInvoice_SameTaxesAgrupaPorTasa(t *testing.T) {
	doc := buildInvoice(t, testInvoice(), testTenant())
	rows := doc.FindElements("//SameTaxes/SameTax")
	require.Len(t, rows, 2)

	assert.Equal(t, "2", attr(rows[0], "NumOfItems"))
	assert.Equal(t, "90.00", attr(rows[0], "PriceBefVAT"))
	assert.Equal(t, "21.00", attr(rows[0], "VATRate"))
	assert.Equal(t, "18.90", attr(rows[0], "VATAmt"))

	assert.Equal(t, "1", attr(rows[1], "NumOfItems"))
	assert.Equal(t, "10.00", attr(rows[1], "PriceBefVAT"))
	assert.Equal(t, "7.00", attr(rows[1], "VATRate"))
	assert.Equal(t, "0.70", attr(rows[1], "VATAmt"))
}

func TestGroupByVATRate_OrdenDePrimeraAparicion(t *testing.T) {
	items := []entity.InvoiceItem{
		{Quantity: d("1"), PriceBeforeVAT: d("1"), VATRate: d("7")},
		{Quantity: d("1"), PriceBeforeVAT: d("1"), VATRate: d("21.00")},
		{Quantity: d("1"), PriceBeforeVAT: d("1"), VATRate: d("7.0")},
	}
	groups := efi.GroupByVATRate(items)
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Rate.Equal(d("7")))
	assert.Equal(t, 2, groups[0].NumItems)
	assert.True(t, groups[1].Rate.Equal(d("21")))
}

func TestBuildInvoice_EmisorSinIVA(t *testing.T) {
	tenant := testTenant()
	tenant.IsInVAT = false
	inv := testInvoice()
	inv.TotalVAT = decimal.Zero
	inv.Items[0].ExemptionCode = "VAT_CL20"

	doc := buildInvoice(t, inv, tenant)
	el := doc.FindElement("//Invoice")

	assert.Equal(t, "false", attr(el, "IsIssuerInVAT"))
	assert.Equal(t, "100.00", attr(el, "TaxFreeAmt"))
	assert.Nil(t, el.SelectAttr("TotVATAmt"))
	assert.Nil(t, doc.FindElement("//SameTaxes"))

	first := doc.FindElement("//Items/I")
	assert.Nil(t, first.SelectAttr("VR"))
	assert.Nil(t, first.SelectAttr("VA"))
	assert.Equal(t, "VAT_CL20", attr(first, "EX"))
}

func TestBuildInvoice_EscapaCaracteresReservados(t *testing.T) {
	tenant := testTenant()
	tenant.SellerName = `O'Brien & Sons "Ltd"`
	inv := testInvoice()
	inv.Items[0].Name = "<Caja> & cinta"

	s, err := buildInvoice(t, inv, tenant).WriteToString()
	require.NoError(t, err)

	assert.Contains(t, s, `Name="O&apos;Brien &amp; Sons &quot;Ltd&quot;"`)
	assert.Contains(t, s, `N="&lt;Caja&gt; &amp; cinta"`)
	assert.NotContains(t, s, "&amp;amp;")
}

func TestBuildInvoice_NombreDeLineaTruncado(t *testing.T) {
	inv := testInvoice()
	inv.Items[0].Name = strings.Repeat("č", 45) // multibyte: se cuenta en runas

	doc := buildInvoice(t, inv, testTenant())
	n := attr(doc.FindElement("//Items/I"), "N")
	assert.Equal(t, strings.Repeat("č", 40), n)
}

func TestBuildInvoice_NombreNormalizadoNFC(t *testing.T) {
	inv := testInvoice()
	inv.Items[0].Name = "č" // c + caron combinante

	doc := buildInvoice(t, inv, testTenant())
	assert.Equal(t, "\u010d", attr(doc.FindElement("//Items/I"), "N"))
}

func TestBuildInvoice_CorrectivaYComprador(t *testing.T) {
	inv := testInvoice()
	inv.Corrective = &entity.CorrectiveInvoice{IICRef: "REF123", IssueDateTime: testIssue}
	inv.Buyer = &entity.Buyer{IDType: "TIN", IDNum: "12345678", Name: "Kupac d.o.o."}
	inv.Operator = &entity.Operator{Code: "op999"}

	doc := buildInvoice(t, inv, testTenant())
	el := doc.FindElement("//Invoice")
	assert.Equal(t, "CORRECTIVE", attr(el, "InvType"))
	assert.Equal(t, "op999", attr(el, "OperatorCode"))

	corr := el.SelectElement("CorrectiveInv")
	require.NotNil(t, corr)
	assert.Equal(t, "REF123", attr(corr, "IICRef"))
	assert.Equal(t, "CORRECTIVE", attr(corr, "Type"))

	buyer := el.SelectElement("Buyer")
	require.NotNil(t, buyer)
	assert.Equal(t, "12345678", attr(buyer, "IDNum"))
	assert.Nil(t, buyer.SelectAttr("Town"))

	// CorrectiveInv precede a PayMethods y Buyer sigue a Seller
	var tags []string
	for _, c := range el.ChildElements() {
		tags = append(tags, c.Tag)
	}
	assert.Equal(t, []string{"CorrectiveInv", "PayMethods", "Seller", "Buyer", "Items", "SameTaxes"}, tags)
}

func TestInvoiceKind(t *testing.T) {
	assert.Equal(t, "INVOICE", efi.InvoiceKind(&entity.Invoice{}))
	assert.Equal(t, "SUMMARY", efi.InvoiceKind(&entity.Invoice{Type: entity.InvoiceTypeSummary}))
	assert.Equal(t, "ADVANCE", efi.InvoiceKind(&entity.Invoice{Type: entity.InvoiceTypeAdvance}))
	assert.Equal(t, "CORRECTIVE", efi.InvoiceKind(&entity.Invoice{
		Type:       entity.InvoiceTypeAdvance,
		Corrective: &entity.CorrectiveInvoice{IICRef: "X"},
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// RegisterCashDepositRequest
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildDeposit_RetiroUsaValorAbsoluto(t *testing.T) {
	doc, err := efi.NewXMLBuilderService(testNamespace).BuildDeposit(&efi.DepositBuildContext{
		Deposit: &entity.Deposit{
			Operation:      "WITHDRAW",
			Amount:         d("-250.5"),
			ChangeDateTime: testIssue,
		},
		Tenant:       testTenant(),
		UUID:         "u-1",
		SendDateTime: testIssue,
	})
	require.NoError(t, err)

	assert.Equal(t, "RegisterCashDepositRequest", doc.Root().Tag)
	el := doc.FindElement("//CashDeposit")
	require.NotNil(t, el)
	assert.Equal(t, "WITHDRAW", attr(el, "Operation"))
	assert.Equal(t, "250.50", attr(el, "CashAmt"))
	assert.Equal(t, "cc123cc123", attr(el, "TCRCode"), "TCR del tenant por defecto")
	assert.Equal(t, "02004003", attr(el, "IssuerTIN"))
	assert.Equal(t, "2025-01-15T10:30:00+01:00", attr(el, "ChangeDateTime"))
}

func TestBuild_ContextoIncompleto(t *testing.T) {
	svc := efi.NewXMLBuilderService(testNamespace)
	_, err := svc.BuildInvoice(&efi.InvoiceBuildContext{Tenant: testTenant()})
	assert.Error(t, err)
	_, err = svc.BuildDeposit(nil)
	assert.Error(t, err)
}
