package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ardanlabs/carledger/business/core/seeder"
	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/ardanlabs/carledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <asset-id>",
	Short: "Print the ownership history of a car",
	Args:  cobra.ExactArgs(1),
	RunE:  historyRun,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	ns, err := nameservice.New(accountPath)
	if err != nil {
		return err
	}

	txs, err := ledger.NewClient(url).AssetHistory(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return printHistory(cmd.OutOrStdout(), ns, txs)
}

// printHistory writes one entry per transaction, naming owners through the
// name service where a key file is known.
func printHistory(out io.Writer, ns *nameservice.NameService, txs []ledger.Tx) error {
	for i, tx := range txs {
		var md struct {
			NewOwner     string       `json:"new_owner"`
			TransferTime *seeder.Date `json:"transfer_time"`
		}
		if len(tx.Metadata) > 0 {
			if err := json.Unmarshal(tx.Metadata, &md); err != nil {
				return fmt.Errorf("tx %s metadata: %w", tx.ID, err)
			}
		}

		sold := "unknown"
		if md.TransferTime != nil {
			sold = md.TransferTime.Time().Format(time.DateOnly)
		}

		owner := ns.Lookup(tx.Outputs[0].PublicKeys[0])
		if md.NewOwner != "" {
			owner = fmt.Sprintf("%s (%s)", md.NewOwner, owner)
		}

		switch tx.Operation {
		case ledger.OpCreate:
			fmt.Fprintf(out, "%d  %s  %s  asset: %s\n", i, tx.Operation, tx.ID, tx.Asset.Data)
			fmt.Fprintf(out, "   owner: %s\n", owner)

		default:
			fmt.Fprintf(out, "%d  %s  %s  from: %s\n", i, tx.Operation, tx.ID, ns.Lookup(tx.Signers()[0]))
			fmt.Fprintf(out, "   owner: %s  sold: %s\n", owner, sold)
		}
	}

	return nil
}
