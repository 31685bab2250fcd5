package cmd

import (
	"fmt"
	"os"

	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	kp, err := ledger.GenerateKeypair()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(accountPath, 0755); err != nil {
		return fmt.Errorf("creating account path: %w", err)
	}

	if err := ledger.SaveKeypair(getPrivateKeyPath(), kp); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), kp.PublicKey)
	return nil
}
