package certstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/efi-fiscal/internal/domain"
)

// VaultStore implementa SecretStore sobre el motor KV v2 de Vault (API HTTP).
type VaultStore struct {
	client *resty.Client
	mount  string
}

// NewVaultStore crea el cliente con autenticación por token.
func NewVaultStore(addr, token, mount string, timeout time.Duration) *VaultStore {
	if mount == "" {
		mount = "secret"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(addr, "/")).
		SetHeader("X-Vault-Token", token).
		SetTimeout(timeout)
	return &VaultStore{client: client, mount: mount}
}

type kvReadResponse struct {
	Data struct {
		Data map[string]interface{} `json:"data"`
	} `json:"data"`
}

func (s *VaultStore) dataURL(path string) string {
	return "/v1/" + s.mount + "/data/" + strings.TrimLeft(path, "/")
}

// Read lee la versión actual del secreto.
func (s *VaultStore) Read(ctx context.Context, path string) (map[string]string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.dataURL(path))
	if err != nil {
		return nil, fmt.Errorf("vault: leer %s: %w", path, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, domain.ErrSecretNotFound
	case resp.IsError():
		return nil, fmt.Errorf("vault: leer %s: estado %d", path, resp.StatusCode())
	}

	var body kvReadResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("vault: decodificar %s: %w", path, err)
	}
	if len(body.Data.Data) == 0 {
		return nil, domain.ErrSecretNotFound
	}
	out := make(map[string]string, len(body.Data.Data))
	for k, v := range body.Data.Data {
		if str, ok := v.(string); ok {
			out[k] = str
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Write crea una nueva versión del secreto.
func (s *VaultStore) Write(ctx context.Context, path string, data map[string]string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{"data": data}).
		Post(s.dataURL(path))
	if err != nil {
		return fmt.Errorf("vault: escribir %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("vault: escribir %s: estado %d", path, resp.StatusCode())
	}
	return nil
}

var _ SecretStore = (*VaultStore)(nil)
