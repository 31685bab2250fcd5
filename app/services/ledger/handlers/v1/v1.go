// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/carledger/app/services/ledger/handlers/v1/txgrp"
	"github.com/ardanlabs/carledger/foundation/events"
	"github.com/ardanlabs/carledger/foundation/ledger/store"
	"github.com/ardanlabs/carledger/foundation/web"
	"go.uber.org/zap"
)

const version = "api/v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	Store *store.Store
	Evts  *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	tgh := txgrp.Handlers{
		Log:   cfg.Log,
		Store: cfg.Store,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/transactions", tgh.Submit)
	app.Handle(http.MethodGet, version, "/transactions", tgh.QueryByAsset)
	app.Handle(http.MethodGet, version, "/transactions/:id", tgh.QueryByID)
	app.Handle(http.MethodGet, version, "/outputs", tgh.Outputs)
	app.Handle(http.MethodGet, version, "/events", tgh.Events)
}
