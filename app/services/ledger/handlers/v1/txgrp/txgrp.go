// Package txgrp maintains the group of handlers for ledger transactions.
package txgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/carledger/business/web/errs"
	"github.com/ardanlabs/carledger/foundation/events"
	"github.com/ardanlabs/carledger/foundation/ledger"
	"github.com/ardanlabs/carledger/foundation/ledger/store"
	"github.com/ardanlabs/carledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of transaction endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Store *store.Store
	Evts  *events.Events
	WS    websocket.Upgrader
}

// Submit validates and commits a fulfilled transaction.
func (h Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx ledger.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx, "asset", tx.AssetID(), "signers", tx.Signers())
	if err := h.Store.Submit(tx); err != nil {
		return errs.NewTrusted(err, status(err))
	}

	h.Evts.Send(events.Event{
		Type:      "committed",
		Operation: string(tx.Operation),
		TxID:      tx.ID,
		AssetID:   tx.AssetID(),
		Time:      v.Now,
	})

	return web.Respond(ctx, w, tx, http.StatusAccepted)
}

// QueryByID returns the committed transaction with the specified id.
func (h Handlers) QueryByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tx, err := h.Store.Transaction(web.Param(r, "id"))
	if err != nil {
		return errs.NewTrusted(err, status(err))
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// QueryByAsset returns the ownership history of an asset.
func (h Handlers) QueryByAsset(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	assetID := r.URL.Query().Get("asset_id")
	if assetID == "" {
		return errs.NewTrusted(errors.New("asset_id is required"), http.StatusBadRequest)
	}

	txs, err := h.Store.AssetHistory(assetID)
	if err != nil {
		return errs.NewTrusted(err, status(err))
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Outputs returns the outputs owned by a public key, optionally filtered by
// their spent state.
func (h Handlers) Outputs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	publicKey := r.URL.Query().Get("public_key")
	if publicKey == "" {
		return errs.NewTrusted(errors.New("public_key is required"), http.StatusBadRequest)
	}

	var spent *bool
	if s := r.URL.Query().Get("spent"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("invalid spent value %q", s), http.StatusBadRequest)
		}
		spent = &b
	}

	return web.Respond(ctx, w, h.Store.Outputs(publicKey, spent), http.StatusOK)
}

// Events handles a web socket to provide commit events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Register before the upgrade so nothing committed after the handshake
	// is missed.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// status maps ledger errors to the http status returned to the client.
func status(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrSpent):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
