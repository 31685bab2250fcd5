package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/ardanlabs/carledger/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func historyTx(id string, op ledger.Operation, metadata string) ledger.Tx {
	return ledger.Tx{
		ID:        id,
		Operation: op,
		Asset:     ledger.Asset{Data: json.RawMessage(`{"name":"Quiet Lake"}`)},
		Inputs:    []ledger.Input{{OwnersBefore: []string{"0xseller"}}},
		Outputs:   []ledger.Output{{PublicKeys: []string{"0xbuyer"}}},
		Metadata:  json.RawMessage(metadata),
	}
}

func Test_PrintHistory(t *testing.T) {
	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a name service: %v", failed, err)
	}

	t.Log("Given the need to print a car's ownership history.")
	{
		t.Logf("\tTest 0:\tWhen every transaction carries valid metadata.")
		{
			txs := []ledger.Tx{
				historyTx("0x01", ledger.OpCreate, `{"notes":"create"}`),
				historyTx("0x02", ledger.OpTransfer, `{"new_owner":"Ada Byron","transfer_time":{"$date":1526650426444}}`),
			}

			var buf bytes.Buffer
			if err := printHistory(&buf, ns, txs); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to print the history: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to print the history.", success)

			out := buf.String()
			if !strings.Contains(out, "owner: Ada Byron (0xbuyer)  sold: 2018-05-18") {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, out)
				t.Fatalf("\t%s\tTest 0:\tShould print the new owner and the sale date.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould print the new owner and the sale date.", success)
		}

		t.Logf("\tTest 1:\tWhen a transfer carries undecodable metadata.")
		{
			txs := []ledger.Tx{
				historyTx("0x02", ledger.OpTransfer, `{"new_owner":"Ada Byron","transfer_time":"yesterday"}`),
			}

			var buf bytes.Buffer
			err := printHistory(&buf, ns, txs)
			if err == nil || !strings.Contains(err.Error(), "tx 0x02 metadata") {
				t.Fatalf("\t%s\tTest 1:\tShould return the metadata error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould return the metadata error: %v", success, err)

			if strings.Contains(buf.String(), "unknown") {
				t.Fatalf("\t%s\tTest 1:\tShould not print a sale date of unknown.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould not print a sale date of unknown.", success)
		}
	}
}
