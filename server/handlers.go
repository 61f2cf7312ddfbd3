// Copyright 2025 Canopy Search
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/storage"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
	defaultProductLimit    = 50
	maxProductLimit        = 500
)

// syncAcceptedResponse is the body of a 202 answer to a sync trigger.
type syncAcceptedResponse struct {
	Message string `json:"message"`
	SyncID  string `json:"sync_id"`
}

// historyPageResponse is one page of the sync history ledger.
type historyPageResponse struct {
	Items   []*core.SyncHistory `json:"items"`
	Page    int                 `json:"page"`
	Size    int                 `json:"size"`
	HasMore bool                `json:"has_more"`
}

// productPageResponse is one page of the product catalog.
type productPageResponse struct {
	Items  []*core.ProductRecord `json:"items"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleSyncProducts triggers a sync run. Validation happens synchronously;
// the run itself executes in the background.
// POST /sync-products
func (s *Server) handleSyncProducts(w http.ResponseWriter, r *http.Request) {
	var req core.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	runID, err := s.orchestrator.Begin(r.Context(), &req)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.logger.Info("sync accepted", "run_id", runID, "source", req.SourceConfig.Source)
	s.writeJSON(w, http.StatusAccepted, syncAcceptedResponse{
		Message: "Product sync started for source " + string(req.SourceConfig.Source),
		SyncID:  runID,
	})
}

// handleGetSyncHistory returns one run row.
// GET /sync-history/{id}
func (s *Server) handleGetSyncHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.histories.GetSyncHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

// handleListSyncHistory returns one page of run rows, newest first.
// GET /sync-history?page=1&size=20
func (s *Server) handleListSyncHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", defaultHistoryPageSize)
	if size > maxHistoryPageSize {
		size = maxHistoryPageSize
	}

	items, hasMore, err := s.histories.ListSyncHistories(r.Context(), page, size)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	if items == nil {
		items = []*core.SyncHistory{}
	}
	s.writeJSON(w, http.StatusOK, historyPageResponse{
		Items:   items,
		Page:    page,
		Size:    size,
		HasMore: hasMore,
	})
}

// handleGetProduct returns one synced product.
// GET /products/{id}
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

// handleListProducts returns a window of the catalog ordered by id.
// GET /products?limit=50&offset=0
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultProductLimit)
	offset := queryInt(r, "offset", 0)
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	items, err := s.products.ListProducts(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	if items == nil {
		items = []*core.ProductRecord{}
	}
	s.writeJSON(w, http.StatusOK, productPageResponse{
		Items:  items,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps the error taxonomy to HTTP statuses: bad input is 400,
// missing rows are 404, everything else is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidSyncRequest),
		errors.Is(err, core.ErrInvalidSourceConfig),
		errors.Is(err, core.ErrUnknownSource),
		errors.Is(err, storage.ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or unparsable.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
