package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/efi-fiscal/internal/domain/entity"
	pkgefi "github.com/jhoicas/efi-fiscal/pkg/efi"
)

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Registra un depósito inicial o un retiro de efectivo en el TCR",
	Example: `  efi deposit --operation INITIAL --amount 100.00
  efi deposit --operation WITHDRAW --amount 250 --tcr cc123cc123`,
	Args: cobra.NoArgs,
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().String("operation", pkgefi.DepositOperationInitial, "INITIAL | WITHDRAW")
	depositCmd.Flags().String("amount", "", "Importe (el signo se ignora)")
	depositCmd.Flags().String("tcr", "", "Código TCR (por defecto el del tenant)")
	_ = depositCmd.MarkFlagRequired("amount")
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	op, _ := cmd.Flags().GetString("operation")
	amountStr, _ := cmd.Flags().GetString("amount")
	tcr, _ := cmd.Flags().GetString("tcr")

	op = strings.ToUpper(strings.TrimSpace(op))
	if op != pkgefi.DepositOperationInitial && op != pkgefi.DepositOperationWithdraw {
		return fmt.Errorf("operación %q no válida (usar INITIAL o WITHDRAW)", op)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("importe %q no válido: %w", amountStr, err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	dep := &entity.Deposit{
		Operation:      op,
		Amount:         amount,
		ChangeDateTime: time.Now(),
		TCRCode:        tcr,
	}
	res := a.engine.FiscalizeDeposit(cmd.Context(), dep, tenantFlag(cmd))
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return errNotRegistered
	}
	return nil
}
