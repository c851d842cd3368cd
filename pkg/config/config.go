package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ambientes del servicio de la administración tributaria.
const (
	AuthorityEnvTest       = "test"
	AuthorityEnvProduction = "production"
)

// ErrDemoModeInProduction se devuelve si el modo demo apunta al endpoint de producción.
var ErrDemoModeInProduction = errors.New("config: EFI_DEMO_MODE no puede usarse con EFI_ENVIRONMENT=production")

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App          AppConfig
	Fiscal       FiscalConfig
	Authority    AuthorityConfig
	Vault        VaultConfig
	Certificates CertificatesConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// FiscalConfig datos fiscales por defecto del contribuyente (perfil del tenant).
type FiscalConfig struct {
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
	DemoMode         bool // sin certificados: IIC y FIC sintéticos, sin red
}

// AuthorityConfig endpoint y esquema del servicio de fiscalización.
type AuthorityConfig struct {
	Environment string // test | production
	ServiceURL  string
	VerifyURL   string
	Namespace   string
	Timeout     time.Duration
}

// VaultConfig acceso al almacén de secretos (KV v2). Addr vacío = sin Vault.
type VaultConfig struct {
	Addr  string
	Token string
	Mount string
}

// Enabled indica si hay Vault configurado.
func (c VaultConfig) Enabled() bool {
	return c.Addr != "" && c.Token != ""
}

// CertificatesConfig almacenamiento local de certificados (solo fuera de producción).
type CertificatesConfig struct {
	LocalDir      string
	LocalPassword string
}

// IsProduction indica si la aplicación corre en producción.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Validate comprueba combinaciones inválidas de la configuración.
func (c *Config) Validate() error {
	if c.Fiscal.DemoMode && c.Authority.Environment == AuthorityEnvProduction {
		return ErrDemoModeInProduction
	}
	return nil
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, EFI_TIN, VAULT_ADDR, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper construye la configuración desde una instancia de Viper ya preparada.
func FromViper(v *viper.Viper) (*Config, error) {
	env := getString(v, "EFI_ENVIRONMENT", AuthorityEnvTest)
	defaultURL := "https://efi-test.tax.gov.me/fs-v1"
	if env == AuthorityEnvProduction {
		defaultURL = "https://efi.tax.gov.me/fs-v1"
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "efi-fiscal"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Fiscal: FiscalConfig{
			TIN:              getString(v, "EFI_TIN", "02004003"),
			BusinessUnitCode: getString(v, "EFI_BUSINESS_UNIT_CODE", "bb123bb123"),
			TCRCode:          getString(v, "EFI_TCR_CODE", "cc123cc123"),
			SoftwareCode:     getString(v, "EFI_SOFTWARE_CODE", "ss123ss123"),
			MaintainerCode:   getString(v, "EFI_MAINTAINER_CODE", "mm123mm123"),
			IsInVAT:          getBool(v, "EFI_IS_IN_VAT", true),
			SellerName:       getString(v, "EFI_SELLER_NAME", "Test Company"),
			SellerAddress:    getString(v, "EFI_SELLER_ADDRESS", "Test Address 1"),
			SellerTown:       getString(v, "EFI_SELLER_TOWN", "Podgorica"),
			SellerCountry:    getString(v, "EFI_SELLER_COUNTRY", "MNE"),
			DemoMode:         getBool(v, "EFI_DEMO_MODE", true),
		},
		Authority: AuthorityConfig{
			Environment: env,
			ServiceURL:  getString(v, "EFI_SERVICE_URL", defaultURL),
			VerifyURL:   getString(v, "EFI_VERIFY_URL", "https://efi.tax.gov.me/fs-v1/verify"),
			Namespace:   getString(v, "EFI_NAMESPACE", "https://efi.tax.gov.me/fs/schema"),
			Timeout:     time.Duration(getInt(v, "EFI_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Vault: VaultConfig{
			Addr:  getString(v, "VAULT_ADDR", ""),
			Token: getString(v, "VAULT_TOKEN", ""),
			Mount: getString(v, "VAULT_MOUNT", "secret"),
		},
		Certificates: CertificatesConfig{
			LocalDir:      getString(v, "CERT_LOCAL_DIR", "Certificates"),
			LocalPassword: getString(v, "CERT_LOCAL_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}
