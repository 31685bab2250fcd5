// Package seeder populates a ledger with synthetic car ownership chains for
// demos: one CREATE per car followed by TRANSFERs to generated owners until
// the simulated sale date reaches the present.
package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/carledger/foundation/ledger"
)

// DefaultDesigner is the creator and first owner of every car.
const DefaultDesigner = "Sergio Tillenham"

// DefaultColors is the palette cars are painted from.
var DefaultColors = []string{
	"teal", "almond", "aluminum", "obsidian", "caramel",
	"tawny", "canary", "coffee", "coral", "cream", "lilac",
}

const day = 24 * time.Hour

// =============================================================================

// Submitter sends a fulfilled transaction to the ledger for recording.
type Submitter interface {
	Send(ctx context.Context, tx ledger.Tx) (ledger.Tx, error)
}

// EventHandler defines a function that is called for every step of the
// seeding so progress can be displayed.
type EventHandler func(v string, args ...any)

// YearRange is an inclusive range of whole years.
type YearRange struct {
	Min int
	Max int
}

// Identity is an owner of a car.
type Identity struct {
	Name string
	Keys ledger.Keypair
}

// Config represents everything the seeder needs. Zero values for the
// optional fields pick the defaults.
type Config struct {
	Ledger     Submitter
	Sampler    Sampler
	Designer   Identity
	Now        func() time.Time
	NewKeypair func() (ledger.Keypair, error)
	EvHandler  EventHandler
	Colors     []string
	CreatedAgo YearRange // Default: 3 to 30 years before now.
	FirstSale  DayRange  // Default: 1 to 730 days after creation.
	NextSale   DayRange  // Default: 1 to 3650 days after the previous sale.
}

// Seeder generates cars and their ownership chains.
type Seeder struct {
	ledger     Submitter
	sampler    Sampler
	designer   Identity
	now        func() time.Time
	newKeypair func() (ledger.Keypair, error)
	evHandler  EventHandler
	colors     []string
	createdAgo YearRange
	firstSale  DayRange
	nextSale   DayRange
}

// New constructs a seeder for use.
func New(cfg Config) (*Seeder, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("ledger submitter is required")
	}

	if cfg.Designer.Keys.PrivateKey == nil {
		return nil, errors.New("designer keys are required")
	}

	if cfg.Designer.Name == "" {
		cfg.Designer.Name = DefaultDesigner
	}

	if cfg.Sampler == nil {
		cfg.Sampler = NewFakeSampler(0)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.NewKeypair == nil {
		cfg.NewKeypair = ledger.GenerateKeypair
	}

	if cfg.EvHandler == nil {
		cfg.EvHandler = func(v string, args ...any) {}
	}

	if len(cfg.Colors) == 0 {
		cfg.Colors = DefaultColors
	}

	if cfg.CreatedAgo == (YearRange{}) {
		cfg.CreatedAgo = YearRange{Min: 3, Max: 30}
	}

	if cfg.FirstSale == (DayRange{}) {
		cfg.FirstSale = DayRange{Min: 1, Max: 730}
	}

	if cfg.NextSale == (DayRange{}) {
		cfg.NextSale = DayRange{Min: 1, Max: 3650}
	}

	if cfg.CreatedAgo.Min < 0 || cfg.CreatedAgo.Max < cfg.CreatedAgo.Min {
		return nil, fmt.Errorf("invalid creation range %+v", cfg.CreatedAgo)
	}

	// Every interval must move the sale clock forward for the transfer loop
	// to terminate.
	for _, r := range []DayRange{cfg.FirstSale, cfg.NextSale} {
		if r.Min < 1 || r.Max < r.Min {
			return nil, fmt.Errorf("invalid sale interval %+v", r)
		}
	}

	s := Seeder{
		ledger:     cfg.Ledger,
		sampler:    cfg.Sampler,
		designer:   cfg.Designer,
		now:        cfg.Now,
		newKeypair: cfg.NewKeypair,
		evHandler:  cfg.EvHandler,
		colors:     cfg.Colors,
		createdAgo: cfg.CreatedAgo,
		firstSale:  cfg.FirstSale,
		nextSale:   cfg.NextSale,
	}

	return &s, nil
}

// =============================================================================

// Transfer is a submitted TRANSFER and the owner it established.
type Transfer struct {
	Tx     ledger.Tx
	Owner  Identity
	SoldAt time.Time
}

// Chain is the ownership history produced for one car.
type Chain struct {
	Number    int
	Car       Car
	Create    ledger.Tx
	Transfers []Transfer
	Discarded time.Time // The first sale date not before now; never submitted.
}

// Run seeds count cars one after the other. The first failure stops the
// run and the chains completed so far are returned with the error.
func (s *Seeder) Run(ctx context.Context, count int) ([]Chain, error) {
	chains := make([]Chain, 0, count)

	for number := range count {
		chain, err := s.Car(ctx, number)
		if err != nil {
			return chains, fmt.Errorf("car %d: %w", number, err)
		}
		chains = append(chains, chain)
	}

	s.evHandler("We are done generating all fake data.")

	return chains, nil
}

// Car creates one car and transfers it until the next sale date would not
// be in the past.
func (s *Seeder) Car(ctx context.Context, number int) (Chain, error) {
	s.evHandler("Generating data for car number %d", number)
	s.evHandler("----------------------------------")

	now := s.now().UTC()

	car := Car{
		Type:     AssetType,
		Name:     s.sampler.CarName(),
		Color:    s.sampler.Color(s.colors),
		Created:  Date(s.sampler.Created(now.AddDate(-s.createdAgo.Max, 0, 0), now.AddDate(-s.createdAgo.Min, 0, 0))),
		Designer: s.designer.Name,
	}

	createTx, err := s.create(ctx, car)
	if err != nil {
		return Chain{}, err
	}

	chain := Chain{
		Number: number,
		Car:    car,
		Create: createTx,
	}

	// Every sale moves the clock at least one day, so the loop can't run
	// more times than there are days between creation and now.
	created := car.Created.Time()
	limit := int(now.Sub(created)/day) + 1

	prevOwner := s.designer
	prevTx := createTx
	wait, err := s.interval(s.firstSale)
	if err != nil {
		return chain, fmt.Errorf("first sale: %w", err)
	}
	sale := created.Add(wait)

	for step := 0; sale.Before(now); step++ {
		if step == limit {
			return chain, fmt.Errorf("sale clock still before %s after %d transfers", now.Format(time.RFC3339), limit)
		}

		owner, err := s.newOwner()
		if err != nil {
			return chain, err
		}

		tx, err := s.transfer(ctx, step, prevTx, prevOwner, owner, sale)
		if err != nil {
			return chain, fmt.Errorf("transfer %d: %w", step, err)
		}

		chain.Transfers = append(chain.Transfers, Transfer{
			Tx:     tx,
			Owner:  owner,
			SoldAt: sale,
		})

		prevOwner = owner
		prevTx = tx

		wait, err := s.interval(s.nextSale)
		if err != nil {
			return chain, fmt.Errorf("sale after transfer %d: %w", step, err)
		}
		sale = sale.Add(wait)
	}

	chain.Discarded = sale

	s.evHandler("We are done generating fake data about that car.\n")

	return chain, nil
}

// =============================================================================

// create submits the CREATE transaction for the car signed by the designer.
func (s *Seeder) create(ctx context.Context, car Car) (ledger.Tx, error) {
	asset, err := ledger.NewAsset(car)
	if err != nil {
		return ledger.Tx{}, err
	}

	metadata := createMetadata{
		Notes: "The CREATE transaction for one particular car (an asset).",
	}

	s.evHandler("CREATE tx asset: %s", asset.Data)
	s.evHandler("CREATE tx metadata: %s", marshal(metadata))

	draft, err := ledger.Prepare(ledger.PrepareRequest{
		Operation: ledger.OpCreate,
		Signers:   []string{s.designer.Keys.PublicKey},
		Asset:     asset,
		Metadata:  metadata,
	})
	if err != nil {
		return ledger.Tx{}, fmt.Errorf("prepare create: %w", err)
	}

	tx, err := s.submit(ctx, draft, s.designer)
	if err != nil {
		return ledger.Tx{}, fmt.Errorf("create: %w", err)
	}

	s.evHandler("CREATE transaction id: %s", tx.ID)

	return tx, nil
}

// transfer moves the car from the previous owner to the new owner by
// spending output 0 of the previous transaction.
func (s *Seeder) transfer(ctx context.Context, step int, prevTx ledger.Tx, from Identity, to Identity, sale time.Time) (ledger.Tx, error) {
	label := "Next"
	metadata := transferMetadata{
		NewOwner:     to.Name,
		TransferTime: Date(sale),
	}

	if step == 0 {
		label = "First"
		notes := fmt.Sprintf("The first transfer, from %s to the first owner.", s.designer.Name)
		metadata.Notes = &notes
	}

	s.evHandler("%s TRANSFER tx metadata: %s", label, marshal(metadata))

	in, err := prevTx.Spend(0)
	if err != nil {
		return ledger.Tx{}, err
	}

	draft, err := ledger.Prepare(ledger.PrepareRequest{
		Operation:  ledger.OpTransfer,
		Asset:      ledger.Asset{ID: prevTx.AssetID()},
		Metadata:   metadata,
		Inputs:     []ledger.Input{in},
		Recipients: []string{to.Keys.PublicKey},
	})
	if err != nil {
		return ledger.Tx{}, fmt.Errorf("prepare: %w", err)
	}

	tx, err := s.submit(ctx, draft, from)
	if err != nil {
		return ledger.Tx{}, err
	}

	s.evHandler("%s TRANSFER tx id: %s", label, tx.ID)

	return tx, nil
}

// submit signs the draft as the signer and sends it to the ledger.
func (s *Seeder) submit(ctx context.Context, draft ledger.Tx, signer Identity) (ledger.Tx, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Tx{}, err
	}

	tx, err := ledger.Fulfill(draft, signer.Keys.PrivateKey)
	if err != nil {
		return ledger.Tx{}, fmt.Errorf("fulfill: %w", err)
	}

	if _, err := s.ledger.Send(ctx, tx); err != nil {
		return ledger.Tx{}, err
	}

	return tx, nil
}

// newOwner generates a fresh identity that is never reused.
func (s *Seeder) newOwner() (Identity, error) {
	keys, err := s.newKeypair()
	if err != nil {
		return Identity{}, fmt.Errorf("new owner: %w", err)
	}

	owner := Identity{
		Name: s.sampler.OwnerName(),
		Keys: keys,
	}

	return owner, nil
}

// interval draws the days until the next sale. A sampler stepping outside
// the range would stall the sale clock, so nothing is submitted for it.
func (s *Seeder) interval(r DayRange) (time.Duration, error) {
	days := s.sampler.Days(r)
	if days < r.Min || days > r.Max {
		return 0, fmt.Errorf("sampled %d days, outside %d to %d", days, r.Min, r.Max)
	}
	return time.Duration(days) * day, nil
}

// marshal renders a value for the progress output.
func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
