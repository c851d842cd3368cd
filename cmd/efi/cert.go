package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Administra el certificado de firma/sello del tenant",
}

var certStoreCmd = &cobra.Command{
	Use:     "store",
	Short:   "Guarda un certificado PKCS#12 (.pfx / .p12)",
	Example: `  efi cert store --tenant default --file empresa.pfx --password '***'`,
	Args:    cobra.NoArgs,
	RunE:    runCertStore,
}

var certInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Muestra sujeto, emisor, huella y vigencia del certificado",
	Args:  cobra.NoArgs,
	RunE:  runCertInfo,
}

var certValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Comprueba que el certificado existe y no está vencido",
	Args:  cobra.NoArgs,
	RunE:  runCertValidate,
}

func init() {
	rootCmd.AddCommand(certCmd)
	certCmd.AddCommand(certStoreCmd, certInfoCmd, certValidateCmd)

	certStoreCmd.Flags().StringP("file", "f", "", "Archivo .pfx/.p12")
	certStoreCmd.Flags().StringP("password", "p", "", "Password del PKCS#12")
	_ = certStoreCmd.MarkFlagRequired("file")
}

func runCertStore(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	password, _ := cmd.Flags().GetString("password")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("leer certificado: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	info, err := a.certs.Store(cmd.Context(), tenantFlag(cmd), data, password)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), info)
}

func runCertInfo(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	info, err := a.certs.Info(cmd.Context(), tenantFlag(cmd))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), info)
}

func runCertValidate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	tenant := tenantFlag(cmd)
	valid := a.certs.Validate(cmd.Context(), tenant)
	if err := printJSON(cmd.OutOrStdout(), map[string]interface{}{"tenant": tenant, "valid": valid}); err != nil {
		return err
	}
	if !valid {
		return errors.New("certificado ausente o vencido")
	}
	return nil
}
