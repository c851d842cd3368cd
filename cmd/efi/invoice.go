package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/efi-fiscal/internal/application/fiscal"
	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
)

var errNotRegistered = errors.New("el registro no fue aceptado")

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Registra una factura leída de un archivo JSON",
	Example: `  # Factura desde archivo
  efi invoice --file factura.json

  # Factura de prueba (dos líneas al 21%, contado)
  efi invoice demo`,
	Args: cobra.NoArgs,
	RunE: runInvoice,
}

var invoiceDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Genera y registra una factura de prueba",
	Args:  cobra.NoArgs,
	RunE:  runInvoiceDemo,
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceDemoCmd)

	invoiceCmd.Flags().StringP("file", "f", "", "Archivo JSON con la factura")
	_ = invoiceCmd.MarkFlagRequired("file")
}

func runInvoice(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("leer factura: %w", err)
	}
	var inv entity.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("decodificar factura %s: %w", path, err)
	}
	return fiscalizeInvoice(cmd, &inv)
}

func runInvoiceDemo(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	return fiscalizeInvoice(cmd, fiscal.DemoInvoice(1000+now.Unix()%9000, now))
}

func fiscalizeInvoice(cmd *cobra.Command, inv *entity.Invoice) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	res := a.engine.FiscalizeInvoice(cmd.Context(), inv, tenantFlag(cmd))
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return errNotRegistered
	}
	return nil
}
