package entity

// Tenant perfil fiscal del contribuyente que emite los documentos.
type Tenant struct {
	ID               string
	TIN              string
	BusinessUnitCode string
	TCRCode          string
	SoftwareCode     string
	MaintainerCode   string
	IsInVAT          bool
	SellerName       string
	SellerAddress    string
	SellerTown       string
	SellerCountry    string
}
