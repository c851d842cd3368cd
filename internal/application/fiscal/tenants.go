package fiscal

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/efi-fiscal/internal/domain"
	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	"github.com/jhoicas/efi-fiscal/pkg/config"
)

// DefaultTenantID tenant usado cuando la configuración describe un único contribuyente.
const DefaultTenantID = "default"

// StaticTenantDirectory directorio en memoria; la gestión de tenants vive fuera de este módulo.
type StaticTenantDirectory struct {
	mu      sync.RWMutex
	tenants map[string]entity.Tenant
}

// NewStaticTenantDirectory crea el directorio con los tenants indicados.
func NewStaticTenantDirectory(tenants ...entity.Tenant) *StaticTenantDirectory {
	d := &StaticTenantDirectory{tenants: make(map[string]entity.Tenant, len(tenants))}
	for _, t := range tenants {
		d.tenants[t.ID] = t
	}
	return d
}

// TenantFromConfig perfil fiscal a partir de la configuración EFI_*.
func TenantFromConfig(id string, c config.FiscalConfig) entity.Tenant {
	return entity.Tenant{
		ID:               id,
		TIN:              c.TIN,
		BusinessUnitCode: c.BusinessUnitCode,
		TCRCode:          c.TCRCode,
		SoftwareCode:     c.SoftwareCode,
		MaintainerCode:   c.MaintainerCode,
		IsInVAT:          c.IsInVAT,
		SellerName:       c.SellerName,
		SellerAddress:    c.SellerAddress,
		SellerTown:       c.SellerTown,
		SellerCountry:    c.SellerCountry,
	}
}

// Put agrega o reemplaza un tenant.
func (d *StaticTenantDirectory) Put(t entity.Tenant) {
	d.mu.Lock()
	d.tenants[t.ID] = t
	d.mu.Unlock()
}

// Tenant implementa TenantDirectory. Devuelve una copia.
func (d *StaticTenantDirectory) Tenant(_ context.Context, tenantID string) (*entity.Tenant, error) {
	d.mu.RLock()
	t, ok := d.tenants[tenantID]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, tenantID)
	}
	return &t, nil
}

var _ TenantDirectory = (*StaticTenantDirectory)(nil)
