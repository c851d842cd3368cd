package certstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/efi-fiscal/internal/domain"
)

// LocalStore respaldo en disco para entornos que no son de producción:
// {dir}/{tenantId}.pfx y los metadatos en {dir}/{tenantId}.json.
type LocalStore struct {
	dir             string
	defaultPassword string
}

// localMetadata contenido del {tenantId}.json.
type localMetadata struct {
	Thumbprint string `json:"thumbprint"`
	Subject    string `json:"subject"`
	Issuer     string `json:"issuer"`
	NotBefore  string `json:"notBefore"`
	NotAfter   string `json:"notAfter"`
	UploadedAt string `json:"uploadedAt"`
	Password   string `json:"password,omitempty"`
}

// NewLocalStore crea el almacén local. defaultPassword se usa si el .json no trae password.
func NewLocalStore(dir, defaultPassword string) *LocalStore {
	return &LocalStore{dir: dir, defaultPassword: defaultPassword}
}

func (s *LocalStore) files(path string) (pfx, meta string, err error) {
	tenant := filepath.Base(strings.TrimRight(path, "/"))
	if tenant == "" || tenant == "." || tenant == ".." || tenant == "/" {
		return "", "", fmt.Errorf("%w: tenant inválido en %q", domain.ErrInvalidInput, path)
	}
	return filepath.Join(s.dir, tenant+".pfx"), filepath.Join(s.dir, tenant+".json"), nil
}

// Read carga el .pfx y sus metadatos con el mismo formato que el secreto de Vault.
func (s *LocalStore) Read(_ context.Context, path string) (map[string]string, error) {
	pfxPath, metaPath, err := s.files(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(pfxPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSecretNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("local: leer %s: %w", pfxPath, err)
	}

	var meta localMetadata
	if b, err := os.ReadFile(metaPath); err == nil {
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, fmt.Errorf("local: metadatos %s: %w", metaPath, err)
		}
	}
	password := meta.Password
	if password == "" {
		password = s.defaultPassword
	}

	return map[string]string{
		FieldCertificate: base64.StdEncoding.EncodeToString(raw),
		FieldPassword:    password,
		FieldThumbprint:  meta.Thumbprint,
		FieldSubject:     meta.Subject,
		FieldIssuer:      meta.Issuer,
		FieldNotBefore:   meta.NotBefore,
		FieldNotAfter:    meta.NotAfter,
		FieldUploadedAt:  meta.UploadedAt,
	}, nil
}

// Write guarda el .pfx (decodificado) y el .json con permisos 0600.
func (s *LocalStore) Write(_ context.Context, path string, data map[string]string) error {
	pfxPath, metaPath, err := s.files(path)
	if err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(data[FieldCertificate])
	if err != nil {
		return fmt.Errorf("local: certificado en Base64: %w", err)
	}
	meta, err := json.MarshalIndent(localMetadata{
		Thumbprint: data[FieldThumbprint],
		Subject:    data[FieldSubject],
		Issuer:     data[FieldIssuer],
		NotBefore:  data[FieldNotBefore],
		NotAfter:   data[FieldNotAfter],
		UploadedAt: data[FieldUploadedAt],
		Password:   data[FieldPassword],
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("local: serializar metadatos: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("local: crear %s: %w", s.dir, err)
	}
	if err := os.WriteFile(pfxPath, raw, 0o600); err != nil {
		return fmt.Errorf("local: escribir %s: %w", pfxPath, err)
	}
	if err := os.WriteFile(metaPath, meta, 0o600); err != nil {
		return fmt.Errorf("local: escribir %s: %w", metaPath, err)
	}
	return nil
}

var _ SecretStore = (*LocalStore)(nil)
