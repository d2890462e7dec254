package main

import (
	"github.com/pterm/pterm"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/ledger-backend/internal/adapter/grpc/ledgerv1"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(ts *timestamppb.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return ts.AsTime().Local().Format(timeLayout)
}

func renderBalance(b *ledgerv1.Balance) {
	pterm.DefaultSection.Println("Balance")
	pterm.Printf("%s %s\n", pterm.Bold.Sprint(b.Amount), b.Currency)
	pterm.Printf("account %s, version %d, updated %s\n", b.AccountId, b.Version, formatTime(b.UpdatedAt))
}

// transactionRows turns records into table rows, colouring credits green
// and debits red
func transactionRows(txs []*ledgerv1.Transaction, senderNames map[string]string) pterm.TableData {
	data := pterm.TableData{
		{"Date", "Type", "Amount", "Description", "Reference", "From"},
	}
	for _, tx := range txs {
		amount := tx.Amount + " " + tx.Currency
		switch tx.Type {
		case "deposit", "received":
			amount = pterm.Green("+" + amount)
		case "withdrawal", "transfer_out":
			amount = pterm.Red("-" + amount)
		}
		from := "-"
		if name, ok := senderNames[tx.Id]; ok && name != "" {
			from = name
		}
		data = append(data, []string{
			formatTime(tx.CreatedAt),
			tx.Type,
			amount,
			tx.Description,
			tx.Reference,
			from,
		})
	}
	return data
}

func renderTransactions(txs []*ledgerv1.Transaction) error {
	if len(txs) == 0 {
		pterm.Warning.Println("No transactions found")
		return nil
	}
	pterm.DefaultSection.Printf("Transactions (%d)", len(txs))
	return pterm.DefaultTable.WithHasHeader().WithData(transactionRows(txs, nil)).Render()
}

func renderReceipt(r *ledgerv1.Receipt) error {
	pterm.DefaultSection.Println("Receipt " + r.Reference)
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Amount", r.Amount + " " + r.Currency},
		{"To", r.RecipientName + " (" + r.RecipientAccountNumber + ")"},
		{"From account", r.SenderAccountId},
		{"Description", r.Description},
		{"Status", r.Status},
		{"Time", formatTime(r.Timestamp)},
	}).Render()
}

func renderSummary(s *ledgerv1.GetAccountSummaryResponse) error {
	pterm.DefaultSection.Println(s.DisplayName + " (" + s.AccountNumber + ")")
	pterm.Printf("Balance: %s %s\n", pterm.Bold.Sprint(s.Balance), s.Currency)

	if len(s.Recent) == 0 {
		pterm.Warning.Println("No recent activity")
		return nil
	}
	txs := make([]*ledgerv1.Transaction, 0, len(s.Recent))
	names := make(map[string]string, len(s.Recent))
	for _, item := range s.Recent {
		txs = append(txs, item.Transaction)
		names[item.Transaction.Id] = item.SenderName
	}
	return pterm.DefaultTable.WithHasHeader().WithData(transactionRows(txs, names)).Render()
}
