package seeder_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/carledger/business/core/seeder"
	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/ardanlabs/carledger/foundation/ledger/store"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var now = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

// storeLedger submits straight into a store so every chain rule is enforced.
type storeLedger struct {
	strg  *store.Store
	sends int
	failN int
}

func (sl *storeLedger) Send(ctx context.Context, tx ledger.Tx) (ledger.Tx, error) {
	sl.sends++
	if sl.failN != 0 && sl.sends == sl.failN {
		return ledger.Tx{}, errors.New("connection refused")
	}
	return tx, sl.strg.Submit(tx)
}

func newLedger(t *testing.T) *storeLedger {
	strg, err := store.New(store.Config{})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a store: %v", failed, err)
	}
	return &storeLedger{strg: strg}
}

func designer(t *testing.T) seeder.Identity {
	keys, err := ledger.GenerateKeypair()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate the designer keys: %v", failed, err)
	}
	return seeder.Identity{Name: seeder.DefaultDesigner, Keys: keys}
}

// scripted returns fixed values so the sale clock can be placed exactly.
type scripted struct {
	created time.Time
	days    []int
	n       int
}

func (s *scripted) CarName() string {
	return "Quiet Lake"
}

func (s *scripted) Color(colors []string) string {
	return colors[0]
}

func (s *scripted) Created(from time.Time, to time.Time) time.Time {
	return s.created
}

func (s *scripted) OwnerName() string {
	return fmt.Sprintf("Owner %d", s.n)
}

func (s *scripted) Days(r seeder.DayRange) int {
	d := s.days[s.n]
	s.n++
	return d
}

// =============================================================================

func Test_Run(t *testing.T) {
	t.Log("Given the need to seed cars with ownership chains.")
	{
		t.Logf("\tTest 0:\tWhen seeding three cars with a fixed seed.")
		{
			ldg := newLedger(t)
			sergio := designer(t)

			var events int
			s, err := seeder.New(seeder.Config{
				Ledger:    ldg,
				Sampler:   seeder.NewFakeSampler(7),
				Designer:  sergio,
				Now:       func() time.Time { return now },
				EvHandler: func(v string, args ...any) { events++ },
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a seeder: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a seeder.", success)

			chains, err := s.Run(context.Background(), 3)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to run.", success)

			if len(chains) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould produce three chains, got %d.", failed, len(chains))
			}

			var total int
			for _, chain := range chains {
				total += 1 + len(chain.Transfers)

				if signers := chain.Create.Signers(); len(signers) != 1 || signers[0] != sergio.Keys.PublicKey {
					t.Fatalf("\t%s\tTest 0:\tShould sign car %d's create by the designer.", failed, chain.Number)
				}

				if chain.Car.Designer != seeder.DefaultDesigner || chain.Car.Type != seeder.AssetType {
					t.Fatalf("\t%s\tTest 0:\tShould describe car %d as designed by %s: %+v", failed, chain.Number, seeder.DefaultDesigner, chain.Car)
				}

				created := chain.Car.Created.Time()
				if created.Before(now.AddDate(-30, 0, 0)) || created.After(now.AddDate(-3, 0, 0)) {
					t.Fatalf("\t%s\tTest 0:\tShould create car %d between 30 and 3 years ago: %s", failed, chain.Number, created)
				}

				prevTx := chain.Create
				prevOwner := sergio.Keys.PublicKey
				prevSale := created
				for i, tr := range chain.Transfers {
					in := tr.Tx.Inputs[0].Fulfills
					if len(tr.Tx.Inputs) != 1 || in.TransactionID != prevTx.ID || in.OutputIndex != 0 {
						t.Fatalf("\t%s\tTest 0:\tShould chain car %d transfer %d to the previous transaction.", failed, chain.Number, i)
					}

					if tr.Tx.Signers()[0] != prevOwner {
						t.Fatalf("\t%s\tTest 0:\tShould sign car %d transfer %d by the previous owner.", failed, chain.Number, i)
					}

					if len(tr.Tx.Outputs) != 1 || tr.Tx.Outputs[0].PublicKeys[0] != tr.Owner.Keys.PublicKey {
						t.Fatalf("\t%s\tTest 0:\tShould give car %d transfer %d one output to the new owner.", failed, chain.Number, i)
					}

					if !tr.SoldAt.After(prevSale) {
						t.Fatalf("\t%s\tTest 0:\tShould advance the sale clock for car %d transfer %d.", failed, chain.Number, i)
					}

					if !tr.SoldAt.Before(now) {
						t.Fatalf("\t%s\tTest 0:\tShould not submit a sale at or after now for car %d transfer %d.", failed, chain.Number, i)
					}

					prevTx = tr.Tx
					prevOwner = tr.Owner.Keys.PublicKey
					prevSale = tr.SoldAt
				}

				if chain.Discarded.Before(now) || !chain.Discarded.After(prevSale) {
					t.Fatalf("\t%s\tTest 0:\tShould stop car %d on a sale date at or after now: %s", failed, chain.Number, chain.Discarded)
				}

				history, err := ldg.strg.AssetHistory(chain.Create.ID)
				if err != nil || len(history) != 1+len(chain.Transfers) {
					t.Fatalf("\t%s\tTest 0:\tShould record car %d's whole chain in the ledger: %v", failed, chain.Number, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould build valid ownership chains.", success)

			if ldg.strg.Count() != total || ldg.sends != total {
				t.Fatalf("\t%s\tTest 0:\tShould send one transaction per step: sends[%d] exp[%d]", failed, ldg.sends, total)
			}
			t.Logf("\t%s\tTest 0:\tShould send one transaction per step.", success)

			if events == 0 {
				t.Fatalf("\t%s\tTest 0:\tShould report progress.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report progress.", success)
		}
	}
}

func Test_Reproducible(t *testing.T) {
	t.Log("Given the need to reproduce a run from its seed.")
	{
		t.Logf("\tTest 0:\tWhen seeding one car twice with the same seed.")
		{
			run := func() seeder.Chain {
				s, err := seeder.New(seeder.Config{
					Ledger:   newLedger(t),
					Sampler:  seeder.NewFakeSampler(42),
					Designer: designer(t),
					Now:      func() time.Time { return now },
				})
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to construct a seeder: %v", failed, err)
				}

				chains, err := s.Run(context.Background(), 1)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to run: %v", failed, err)
				}
				return chains[0]
			}

			first, second := run(), run()

			if first.Car.Name != second.Car.Name || first.Car.Color != second.Car.Color || !first.Car.Created.Time().Equal(second.Car.Created.Time()) {
				t.Logf("\t%s\tTest 0:\tgot: %+v", failed, second.Car)
				t.Logf("\t%s\tTest 0:\texp: %+v", failed, first.Car)
				t.Fatalf("\t%s\tTest 0:\tShould generate the same car.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould generate the same car.", success)

			if len(first.Transfers) != len(second.Transfers) {
				t.Logf("\t%s\tTest 0:\tgot: %d", failed, len(second.Transfers))
				t.Logf("\t%s\tTest 0:\texp: %d", failed, len(first.Transfers))
				t.Fatalf("\t%s\tTest 0:\tShould generate the same number of transfers.", failed)
			}

			for i := range first.Transfers {
				if !first.Transfers[i].SoldAt.Equal(second.Transfers[i].SoldAt) || first.Transfers[i].Owner.Name != second.Transfers[i].Owner.Name {
					t.Fatalf("\t%s\tTest 0:\tShould generate the same transfer %d.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould generate the same %d transfers.", success, len(first.Transfers))
		}
	}
}

func Test_Boundary(t *testing.T) {
	created := now.AddDate(0, 0, -100)

	type table struct {
		name      string
		days      []int
		transfers int
		discarded time.Time
	}

	tt := []table{
		{name: "exactly-now", days: []int{30, 70}, transfers: 1, discarded: now},
		{name: "first-exactly-now", days: []int{100}, transfers: 0, discarded: now},
		{name: "one-day-before", days: []int{30, 69, 5}, transfers: 2, discarded: created.AddDate(0, 0, 104)},
	}

	t.Log("Given the need to never submit a sale at or after now.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the sale clock is scripted as %v.", testID, tst.days)
			{
				f := func(t *testing.T) {
					ldg := newLedger(t)

					s, err := seeder.New(seeder.Config{
						Ledger:   ldg,
						Sampler:  &scripted{created: created, days: tst.days},
						Designer: designer(t),
						Now:      func() time.Time { return now },
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct a seeder: %v", failed, testID, err)
					}

					chain, err := s.Car(context.Background(), 0)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to seed a car: %v", failed, testID, err)
					}

					if len(chain.Transfers) != tst.transfers {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, len(chain.Transfers))
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.transfers)
						t.Fatalf("\t%s\tTest %d:\tShould submit the right number of transfers.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould submit the right number of transfers.", success, testID)

					if !chain.Discarded.Equal(tst.discarded) {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, chain.Discarded)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.discarded)
						t.Fatalf("\t%s\tTest %d:\tShould discard the right candidate.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould discard the right candidate.", success, testID)

					if ldg.sends != 1+tst.transfers {
						t.Fatalf("\t%s\tTest %d:\tShould not send the discarded candidate: sends[%d]", failed, testID, ldg.sends)
					}
					t.Logf("\t%s\tTest %d:\tShould not send the discarded candidate.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_StalledClock(t *testing.T) {
	created := now.AddDate(0, 0, -100)

	type table struct {
		name      string
		days      []int
		transfers int
	}

	tt := []table{
		{name: "zero-first-sale", days: []int{0}, transfers: 0},
		{name: "zero-next-sale", days: []int{30, 0}, transfers: 1},
		{name: "first-sale-too-late", days: []int{731}, transfers: 0},
		{name: "negative-next-sale", days: []int{30, -5}, transfers: 1},
	}

	t.Log("Given the need to keep the sale clock moving forward.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the sampler returns %v days.", testID, tst.days)
			{
				f := func(t *testing.T) {
					ldg := newLedger(t)

					s, err := seeder.New(seeder.Config{
						Ledger:   ldg,
						Sampler:  &scripted{created: created, days: tst.days},
						Designer: designer(t),
						Now:      func() time.Time { return now },
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct a seeder: %v", failed, testID, err)
					}

					chain, err := s.Car(context.Background(), 0)
					if err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould reject the interval.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the interval: %v", success, testID, err)

					if len(chain.Transfers) != tst.transfers || ldg.sends != 1+tst.transfers {
						t.Logf("\t%s\tTest %d:\tgot: transfers[%d] sends[%d]", failed, testID, len(chain.Transfers), ldg.sends)
						t.Logf("\t%s\tTest %d:\texp: transfers[%d] sends[%d]", failed, testID, tst.transfers, 1+tst.transfers)
						t.Fatalf("\t%s\tTest %d:\tShould not submit a transfer for the rejected interval.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not submit a transfer for the rejected interval.", success, testID)

					if ldg.strg.Count() != 1+tst.transfers {
						t.Fatalf("\t%s\tTest %d:\tShould leave only the submitted chain on the ledger: count[%d]", failed, testID, ldg.strg.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould leave only the submitted chain on the ledger.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_SubmitFailure(t *testing.T) {
	t.Log("Given the need to stop the run on the first failure.")
	{
		t.Logf("\tTest 0:\tWhen the ledger fails the third submission.")
		{
			ldg := newLedger(t)
			ldg.failN = 3

			s, err := seeder.New(seeder.Config{
				Ledger:   ldg,
				Sampler:  &scripted{created: now.AddDate(-10, 0, 0), days: []int{10, 10, 10, 10}},
				Designer: designer(t),
				Now:      func() time.Time { return now },
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a seeder: %v", failed, err)
			}

			chains, err := s.Run(context.Background(), 5)
			if err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould return the ledger failure.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return the ledger failure: %v", success, err)

			if len(chains) != 0 || ldg.sends != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould not continue after the failure: chains[%d] sends[%d]", failed, len(chains), ldg.sends)
			}
			t.Logf("\t%s\tTest 0:\tShould not continue after the failure.", success)
		}

		t.Logf("\tTest 1:\tWhen the context is already canceled.")
		{
			ldg := newLedger(t)

			s, err := seeder.New(seeder.Config{
				Ledger:   ldg,
				Designer: designer(t),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct a seeder: %v", failed, err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := s.Run(ctx, 1); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 1:\tShould return context.Canceled: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould return context.Canceled.", success)

			if ldg.sends != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould not send anything.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould not send anything.", success)
		}
	}
}

func Test_Config(t *testing.T) {
	t.Log("Given the need to reject a seeder that can't terminate.")
	{
		t.Logf("\tTest 0:\tWhen the configuration is incomplete or invalid.")
		{
			ldg := newLedger(t)
			sergio := designer(t)

			cfgs := []seeder.Config{
				{Designer: sergio},
				{Ledger: ldg},
				{Ledger: ldg, Designer: sergio, NextSale: seeder.DayRange{Min: 0, Max: 10}},
				{Ledger: ldg, Designer: sergio, FirstSale: seeder.DayRange{Min: 5, Max: 1}},
				{Ledger: ldg, Designer: sergio, CreatedAgo: seeder.YearRange{Min: 10, Max: 3}},
			}

			for i, cfg := range cfgs {
				if _, err := seeder.New(cfg); err == nil {
					t.Fatalf("\t%s\tTest 0:\tShould reject config %d.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould reject every invalid config.", success)
		}
	}
}
