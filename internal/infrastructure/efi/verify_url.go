package efi

import "net/url"

// VerifyURL enlace público de verificación: {base}?iic=...&tin=...&fic=...
func VerifyURL(base, iic, tin, fic string) string {
	return base + "?iic=" + url.QueryEscape(iic) +
		"&tin=" + url.QueryEscape(tin) +
		"&fic=" + url.QueryEscape(fic)
}
