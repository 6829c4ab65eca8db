package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/plata/internal/ledger"
)

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Print the current balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			ctx, a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Shutdown(ctx)

			acc, err := a.Account(args[0])
			if err != nil {
				return err
			}
			balance, err := a.Ledgers.Balance(ctx, acc.Ledger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", acc.Name, ledger.FormatMoney(balance.Total))
			if balance.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "(%d rows skipped as malformed)\n", balance.Skipped)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <account>",
		Short: "Print the most recent movements of an account, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			ctx, a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Shutdown(ctx)

			acc, err := a.Account(args[0])
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.Config.HistoryLimit
			}
			entries, err := a.Ledgers.Recent(ctx, acc.Ledger, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No movements recorded in %s yet.\n", acc.Name)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ledger.FormatTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of movements to show (default from config)")
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create missing ledgers and their header rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			ctx, a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Shutdown(ctx)

			if err := a.EnsureLedgers(ctx); err != nil {
				return err
			}
			for _, acc := range a.Config.Accounts {
				fmt.Fprintf(cmd.OutOrStdout(), "ready: %s (%s)\n", acc.Name, acc.Ledger)
			}
			return nil
		},
	}
}
