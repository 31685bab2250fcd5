// This program manages owner keys and inspects car ownership on a ledger.
package main

import "github.com/ardanlabs/carledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
