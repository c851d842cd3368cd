package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/efi-fiscal/internal/application/fiscal"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "efi",
	Short: "Registro fiscal de facturas y depósitos (EFI)",
	Long: `efi firma y registra facturas y depósitos de efectivo ante el servicio de
fiscalización electrónica, y administra los certificados por tenant.

La configuración se lee de variables de entorno (EFI_*, VAULT_*, CERT_*)
y opcionalmente de .env en el directorio actual.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute ejecuta la CLI y termina el proceso con código 1 si falla.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("tenant", fiscal.DefaultTenantID, "ID del tenant")
}

func tenantFlag(cmd *cobra.Command) string {
	t, _ := cmd.Flags().GetString("tenant")
	return t
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar salida: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
