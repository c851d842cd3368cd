package main

import (
	"os"

	"github.com/jhoicas/efi-fiscal/internal/application/fiscal"
	"github.com/jhoicas/efi-fiscal/internal/infrastructure/certstore"
	infraefi "github.com/jhoicas/efi-fiscal/internal/infrastructure/efi"
	"github.com/jhoicas/efi-fiscal/internal/infrastructure/efi/signer"
	"github.com/jhoicas/efi-fiscal/pkg/config"
	"github.com/jhoicas/efi-fiscal/pkg/logger"
)

// app dependencias construidas a partir de la configuración.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	certs   *certstore.Provider
	tenants *fiscal.StaticTenantDirectory
	engine  *fiscal.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// stdout queda para el JSON de salida
	log := logger.New(logger.Config{
		Env:    cfg.App.Env,
		Level:  cfg.App.LogLevel,
		Output: os.Stderr,
	})
	log.Debug().
		Str("env", cfg.App.Env).
		Str("authority_env", cfg.Authority.Environment).
		Bool("demo", cfg.Fiscal.DemoMode).
		Msg("configuración cargada")

	opts := certstore.Options{Logger: log}
	if cfg.Vault.Enabled() {
		opts.Secrets = certstore.NewVaultStore(cfg.Vault.Addr, cfg.Vault.Token, cfg.Vault.Mount, cfg.Authority.Timeout)
	} else {
		log.Warn().Msg("Vault no configurado")
	}
	if !cfg.App.IsProduction() {
		opts.Local = certstore.NewLocalStore(cfg.Certificates.LocalDir, cfg.Certificates.LocalPassword)
	}
	certs := certstore.NewProvider(opts)

	tenants := fiscal.NewStaticTenantDirectory(fiscal.TenantFromConfig(fiscal.DefaultTenantID, cfg.Fiscal))

	engine, err := fiscal.NewEngine(fiscal.Dependencies{
		Tenants:      tenants,
		Certificates: certs,
		Signer:       signer.NewXMLSignerService(cfg.Fiscal.DemoMode, log),
		Submitter:    infraefi.NewSOAPClient(cfg.Authority.ServiceURL, cfg.Authority.Timeout),
		Logger:       log,
	}, fiscal.EngineConfig{
		DemoMode:    cfg.Fiscal.DemoMode,
		Environment: cfg.Authority.Environment,
		Namespace:   cfg.Authority.Namespace,
		VerifyURL:   cfg.Authority.VerifyURL,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, certs: certs, tenants: tenants, engine: engine}, nil
}
