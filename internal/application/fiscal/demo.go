package fiscal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
)

var demoVATRate = decimal.NewFromInt(21)

// DemoInvoice factura de prueba al contado: dos líneas al 21%.
// Los importes se derivan de las líneas, como haría la capa de entrada.
func DemoInvoice(number int64, issued time.Time) *entity.Invoice {
	items := []entity.InvoiceItem{
		demoItem("Product A", "001", decimal.NewFromInt(2), decimal.NewFromInt(50)),
		demoItem("Product B", "002", decimal.NewFromInt(1), decimal.NewFromInt(30)),
	}

	net, vat := decimal.Zero, decimal.Zero
	for _, it := range items {
		net = net.Add(it.PriceBeforeVAT.Mul(it.Quantity))
		vat = vat.Add(it.VATAmount)
	}
	total := net.Add(vat)

	return &entity.Invoice{
		Number:          number,
		IssueDateTime:   issued,
		TotalWithoutVAT: net,
		TotalVAT:        vat,
		TotalPrice:      total,
		IsCash:          true,
		Type:            entity.InvoiceTypeNormal,
		Items:           items,
		PaymentMethods:  []entity.PaymentMethod{{Type: pkgefi.PaymentTypeCash, Amount: total}},
	}
}

func demoItem(name, code string, qty, price decimal.Decimal) entity.InvoiceItem {
	base := price.Mul(qty)
	vat := base.Mul(demoVATRate).Div(decimal.NewFromInt(100)).Round(2)
	return entity.InvoiceItem{
		Name:           name,
		Code:           code,
		Unit:           pkgefi.DefaultUnit,
		Quantity:       qty,
		PriceBeforeVAT: price,
		VATRate:        demoVATRate,
		VATAmount:      vat,
		TotalPrice:     base.Add(vat),
	}
}
