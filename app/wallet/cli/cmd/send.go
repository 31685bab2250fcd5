package cmd

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/spf13/cobra"
)

var (
	assetID string
	to      string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transfer a car owned by this wallet to another owner",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&assetID, "asset", "s", "", "Id of the car to transfer.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Public key of the new owner.")
	sendCmd.MarkFlagRequired("asset")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kp, err := ledger.LoadKeypair(getPrivateKeyPath())
	if err != nil {
		return err
	}

	cln := ledger.NewClient(url)

	// Find the unspent output this wallet holds for the car.
	unspent := false
	refs, err := cln.Outputs(ctx, kp.PublicKey, &unspent)
	if err != nil {
		return err
	}

	var prev ledger.Tx
	var index = -1
	for _, ref := range refs {
		tx, err := cln.Transaction(ctx, ref.TransactionID)
		if err != nil {
			return err
		}
		if tx.AssetID() == assetID {
			prev, index = tx, ref.OutputIndex
			break
		}
	}

	if index == -1 {
		return errors.New("this wallet does not own car " + assetID)
	}

	in, err := prev.Spend(index)
	if err != nil {
		return err
	}

	draft, err := ledger.Prepare(ledger.PrepareRequest{
		Operation:  ledger.OpTransfer,
		Asset:      ledger.Asset{ID: assetID},
		Inputs:     []ledger.Input{in},
		Recipients: []string{to},
	})
	if err != nil {
		return err
	}

	tx, err := ledger.Fulfill(draft, kp.PrivateKey)
	if err != nil {
		return err
	}

	if _, err := cln.Send(ctx, tx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tx.ID)
	return nil
}
