package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/simaogato/ledger-backend/internal/adapter/grpc/ledgerv1"
)

func newBalanceCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account-id]",
		Short: "Show an account balance (defaults to --as)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.GetBalance(ctx, &ledgerv1.GetBalanceRequest{AccountId: optionalArg(args)})
			if err != nil {
				return err
			}
			renderBalance(resp.Balance)
			return nil
		},
	}
}

func newHistoryCmd(c *client) *cobra.Command {
	var limit int32

	cmd := &cobra.Command{
		Use:     "history [account-id]",
		Aliases: []string{"ls"},
		Short:   "List transactions newest first",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.ListTransactions(ctx, &ledgerv1.ListTransactionsRequest{
				AccountId: optionalArg(args),
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			return renderTransactions(resp.Transactions)
		},
	}
	cmd.Flags().Int32VarP(&limit, "limit", "l", 20, "maximum number of records (0 for all)")
	return cmd
}

func newTransferCmd(c *client) *cobra.Command {
	var description, key string

	cmd := &cobra.Command{
		Use:   "transfer <recipient-account-number> <amount>",
		Short: "Send money from the --as account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.Transfer(ctx, &ledgerv1.TransferRequest{
				RecipientAccountNumber: args[0],
				Amount:                 args[1],
				Description:            description,
				IdempotencyKey:         key,
			})
			if err != nil {
				return err
			}
			pterm.Success.Println("Transfer completed")
			return renderReceipt(resp.Receipt)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "transfer description")
	cmd.Flags().StringVarP(&key, "idempotency-key", "k", "", "key that makes retries safe")
	return cmd
}

func newAdjustCmd(c *client) *cobra.Command {
	var mode, key string

	cmd := &cobra.Command{
		Use:   "adjust <account-id> <amount>",
		Short: "Admin balance adjustment (--mode increase|reduce|set)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.AdjustBalance(ctx, &ledgerv1.AdjustBalanceRequest{
				AccountId:      args[0],
				Amount:         args[1],
				Mode:           mode,
				IdempotencyKey: key,
			})
			if err != nil {
				return err
			}
			if resp.Transaction == nil {
				pterm.Info.Println("Balance already at target, nothing recorded")
			} else {
				pterm.Success.Println(resp.Transaction.Description)
			}
			renderBalance(resp.Balance)
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "increase", "increase, reduce or set")
	cmd.Flags().StringVarP(&key, "idempotency-key", "k", "", "key that makes retries safe")
	return cmd
}

func newReceiptCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <reference>",
		Short: "Show the receipt of a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.GetReceipt(ctx, &ledgerv1.GetReceiptRequest{Reference: args[0]})
			if err != nil {
				return err
			}
			return renderReceipt(resp.Receipt)
		},
	}
}

func newSummaryCmd(c *client) *cobra.Command {
	var recent int32

	cmd := &cobra.Command{
		Use:   "summary [account-id]",
		Short: "Show name, number, balance and recent activity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.GetAccountSummary(ctx, &ledgerv1.GetAccountSummaryRequest{
				AccountId: optionalArg(args),
				Recent:    recent,
			})
			if err != nil {
				return err
			}
			return renderSummary(resp)
		},
	}
	cmd.Flags().Int32VarP(&recent, "recent", "r", 10, "number of recent transactions")
	return cmd
}

func newLookupCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <account-number>",
		Short: "Preview the holder of an account number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeConn, err := c.dial()
			if err != nil {
				return err
			}
			defer closeConn()
			ctx, cancel := c.callContext(cmd.Context())
			defer cancel()

			resp, err := svc.LookupRecipient(ctx, &ledgerv1.LookupRecipientRequest{AccountNumber: args[0]})
			if err != nil {
				return err
			}
			pterm.Info.Printf("%s belongs to %s\n", resp.AccountNumber, resp.DisplayName)
			return nil
		},
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
