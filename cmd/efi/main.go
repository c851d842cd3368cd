// Command efi registra facturas y depósitos de efectivo ante el servicio de
// fiscalización y administra los certificados de cada tenant.
package main

func main() {
	Execute()
}
