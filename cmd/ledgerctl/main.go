// Command ledgerctl is an operator client for ledgerd.
package main

import (
	"context"
	"os"
	"time"
	"unicode"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcadapter "github.com/simaogato/ledger-backend/internal/adapter/grpc"
	"github.com/simaogato/ledger-backend/internal/adapter/grpc/ledgerv1"
)

type globalFlags struct {
	Addr    string
	Token   string
	Account string
	Role    string
	Timeout time.Duration
}

// client opens a connection and returns a call context carrying the caller
type client struct {
	flags *globalFlags
}

func (c *client) dial() (ledgerv1.LedgerServiceClient, func(), error) {
	conn, err := grpc.NewClient(c.flags.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return ledgerv1.NewLedgerServiceClient(conn), func() { _ = conn.Close() }, nil
}

func (c *client) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, c.flags.Timeout)
	return callerContext(ctx, c.flags.Token, c.flags.Role, c.flags.Account), cancel
}

// callerContext attaches the service token and the caller identity
func callerContext(ctx context.Context, token, role, account string) context.Context {
	pairs := []string{
		grpcadapter.MetadataAuthorization, token,
		grpcadapter.MetadataCallerRole, role,
	}
	if account != "" {
		pairs = append(pairs, grpcadapter.MetadataCallerAccount, account)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

func main() {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}

	flags := &globalFlags{}
	c := &client{flags: flags}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "ledgerctl talks to a running ledgerd",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.Addr, "addr", envOr("LEDGER_ADDR", "localhost:8080"), "ledgerd gRPC address")
	pf.StringVar(&flags.Token, "token", envOr("LEDGER_TOKEN", "dev-token"), "service token")
	pf.StringVar(&flags.Account, "as", os.Getenv("LEDGER_ACCOUNT"), "caller account id")
	pf.StringVar(&flags.Role, "role", envOr("LEDGER_ROLE", "user"), "caller role (admin|user)")
	pf.DurationVar(&flags.Timeout, "timeout", 10*time.Second, "per call timeout")

	rootCmd.AddCommand(newBalanceCmd(c))
	rootCmd.AddCommand(newHistoryCmd(c))
	rootCmd.AddCommand(newTransferCmd(c))
	rootCmd.AddCommand(newAdjustCmd(c))
	rootCmd.AddCommand(newReceiptCmd(c))
	rootCmd.AddCommand(newSummaryCmd(c))
	rootCmd.AddCommand(newLookupCmd(c))

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(errorMessage(err))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// errorMessage strips the gRPC status wrapper and capitalizes the message
func errorMessage(err error) string {
	msg := err.Error()
	if st, ok := status.FromError(err); ok {
		msg = st.Message()
	}
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
