// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/adxyz/adnet/pkg/adnet"
	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/ledger"
	"github.com/adxyz/adnet/pkg/log"
	"github.com/adxyz/adnet/pkg/metric"
	"github.com/adxyz/adnet/pkg/session"
	"github.com/adxyz/adnet/pkg/settlement"
)

type server struct {
	network  *adnet.Network
	log      log.Logger
	metrics  *metric.Metrics
	faucet   faucet
	upgrader websocket.Upgrader
}

func newServer(network *adnet.Network, logger log.Logger, metrics *metric.Metrics, f faucet) *server {
	return &server{
		network: network,
		log:     logger,
		metrics: metrics,
		faucet:  f,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/session", s.handleConnect).Methods(http.MethodPost)
	v1.HandleFunc("/session", s.handleLogout).Methods(http.MethodDelete)

	v1.HandleFunc("/ads", s.handleCreateAd).Methods(http.MethodPost)
	v1.HandleFunc("/ads", s.handleMyAds).Methods(http.MethodGet)
	v1.HandleFunc("/ads/{id:[0-9]+}", s.handleDeleteAd).Methods(http.MethodDelete)
	v1.HandleFunc("/ads/{id:[0-9]+}/views", s.handleTopUp).Methods(http.MethodPost)

	v1.HandleFunc("/projects", s.handleRegisterProject).Methods(http.MethodPost)
	v1.HandleFunc("/projects/{id}/next-ad", s.handleNextAd).Methods(http.MethodGet)
	v1.HandleFunc("/projects/{id}/pending-view", s.handleCancelView).Methods(http.MethodDelete)
	v1.HandleFunc("/projects/{id}/cashout", s.handleCashOut).Methods(http.MethodPost)
	v1.HandleFunc("/cashout", s.handleCashOutAll).Methods(http.MethodPost)

	v1.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	v1.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	v1.HandleFunc("/tracking", s.handleTracking).Methods(http.MethodGet)
	v1.HandleFunc("/password", s.handlePassword).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleStatusStream)
	return r
}

func (s *server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps the error taxonomy onto status codes without collapsing
// the reason.
func (s *server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	kind := "internal"

	var transferErr *ledger.TransferError
	var inconsistency *settlement.InconsistencyError

	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		code, kind = http.StatusUnauthorized, "not_authenticated"
	case errors.Is(err, session.ErrActorUninitialized):
		code, kind = http.StatusServiceUnavailable, "actor_uninitialized"
	case errors.Is(err, session.ErrAlreadyAuthenticated):
		code, kind = http.StatusConflict, "already_authenticated"
	case errors.As(err, &inconsistency):
		code, kind = http.StatusBadGateway, "settlement_inconsistency"
	case errors.As(err, &transferErr):
		code, kind = http.StatusPaymentRequired, "transfer_failed"
	case errors.Is(err, adstore.ErrAlreadyExists):
		code, kind = http.StatusConflict, "already_exists"
	case errors.Is(err, adstore.ErrNotOwner):
		code, kind = http.StatusForbidden, "not_owner"
	case errors.Is(err, adstore.ErrNotFound):
		code, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, adstore.ErrTicketInvalid):
		code, kind = http.StatusConflict, "ticket_invalid"
	case errors.Is(err, adstore.ErrInvalidInput):
		code, kind = http.StatusBadRequest, "invalid_input"
	}

	s.metrics.RequestsProcessed.WithLabelValues("error", strconv.Itoa(code)).Inc()
	s.writeJSON(w, code, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method    string `json:"method"`
		Principal string `json:"principal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	principal, err := ids.PrincipalFromString(req.Principal)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	if err := s.network.Connect(session.Method(req.Method), principal); err != nil {
		s.writeError(w, err)
		return
	}
	s.faucet.fund(principal)
	s.writeJSON(w, http.StatusOK, map[string]string{"principal": principal.String()})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.network.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCreateAd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type           string `json:"adType"`
		ClickURL       string `json:"clickUrl"`
		Views          uint64 `json:"views"`
		Image          string `json:"imageBase64"`
		ImagePortrait  string `json:"imageBase64Portrait"`
		ImageLandscape string `json:"imageBase64Landscape"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	result, err := s.network.CreateAd(r.Context(), adnet.CreateAdRequest{
		Type:           req.Type,
		ClickURL:       req.ClickURL,
		Views:          req.Views,
		Image:          req.Image,
		ImagePortrait:  req.ImagePortrait,
		ImageLandscape: req.ImageLandscape,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"adIds":   result.AdIDs,
		"costE8s": result.CostE8s,
	})
}

func (s *server) handleMyAds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.network.MyAds()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ads)
}

func (s *server) handleDeleteAd(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ad id", Kind: "bad_request"})
		return
	}
	if err := s.network.DeleteAd(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleTopUp(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ad id", Kind: "bad_request"})
		return
	}
	var req struct {
		Extra uint64 `json:"extra"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	if err := s.network.TopUpViews(r.Context(), id, req.Extra); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	if err := s.network.RegisterProject(r.Context(), req.ID, req.Contact); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *server) handleNextAd(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	placement, ok, err := s.network.NextAd(r.Context(), projectID, r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		// A valid empty outcome, not an error.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ad":     placement.Ad,
		"ticket": placement.Ticket,
	})
}

func (s *server) handleCancelView(w http.ResponseWriter, r *http.Request) {
	s.network.CancelView(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCashOut(w http.ResponseWriter, r *http.Request) {
	views, err := s.network.CashOutProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"viewsCashed": views})
}

func (s *server) handleCashOutAll(w http.ResponseWriter, r *http.Request) {
	views, err := s.network.CashOutAllProjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"viewsCashed": views})
}

func (s *server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	to, err := ids.PrincipalFromString(req.To)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	block, err := s.network.Transfer(r.Context(), to, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"blockIndex": uint64(block)})
}

func (s *server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.network.Balance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *server) handleTracking(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.network.Tracking())
}

func (s *server) handlePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": s.network.VerifyPassword(req.Password)})
}

// handleStatusStream upgrades to a websocket and forwards the status
// stream until the client disconnects.
func (s *server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	id, events := s.network.Notifier().Subscribe()
	defer s.network.Notifier().Unsubscribe(id)

	// Reader goroutine detects client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
