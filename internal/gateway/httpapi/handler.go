// Package httpapi exposes the composite REST API over gorilla/mux.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/microfabric/composite-gateway/internal/gateway/composite"
	"github.com/microfabric/composite-gateway/internal/logging"
)

// handler bundles the HTTP endpoints of the gateway.
type handler struct {
	orch *composite.Orchestrator
	log  *logging.Logger
}

// NewRouter returns a router exposing the composite API.
func NewRouter(orch *composite.Orchestrator, log *logging.Logger) *mux.Router {
	h := &handler{orch: orch, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	r.HandleFunc("/addresses", h.listAddresses).Methods(http.MethodGet)
	r.HandleFunc("/addresses/query", h.queryAddresses).Methods(http.MethodPost)
	r.HandleFunc("/addresses", h.createAddress).Methods(http.MethodPost)
	r.HandleFunc("/addresses/{id}", h.deleteAddress).Methods(http.MethodDelete)

	r.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}", h.getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", h.deleteUser).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id:[0-9]+}/addresses", h.userAddresses).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}/profile", h.userProfile).Methods(http.MethodGet)

	r.HandleFunc("/users_with_address", h.createUserWithAddress).Methods(http.MethodPost)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "composite-gateway", "status": "ok"})
}

func (h *handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromURL(r)
	if err != nil {
		writeError(w, composite.CodeBadRequest, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.orch.ListAddresses(r.Context(), q)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) queryAddresses(w http.ResponseWriter, r *http.Request) {
	var q composite.AddressQuery
	if err := decodeJSON(r.Body, &q); err != nil {
		writeError(w, composite.CodeBadRequest, http.StatusBadRequest, "invalid query body: "+err.Error())
		return
	}

	doc, err := h.orch.ListAddresses(r.Context(), q)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) createAddress(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, composite.CodeBadRequest, http.StatusBadRequest, "invalid address body: "+err.Error())
		return
	}

	created, err := h.orch.CreateAddress(r.Context(), payload)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.orch.DeleteAddress(r.Context(), id)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, composite.CodeBadRequest, http.StatusBadRequest, "invalid user body: "+err.Error())
		return
	}

	doc, err := h.orch.CreateUser(r.Context(), payload)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDVar(w, r)
	if !ok {
		return
	}

	doc, err := h.orch.GetUser(r.Context(), id)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDVar(w, r)
	if !ok {
		return
	}

	doc, err := h.orch.DeleteUser(r.Context(), id)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) userAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDVar(w, r)
	if !ok {
		return
	}

	result, err := h.orch.AddressesForUser(r.Context(), id)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) userProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDVar(w, r)
	if !ok {
		return
	}

	profile, err := h.orch.UserProfile(r.Context(), id)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *handler) createUserWithAddress(w http.ResponseWriter, r *http.Request) {
	var req composite.UserWithAddressRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, composite.CodeBadRequest, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orch.CreateUserWithAddress(r.Context(), req)
	if err != nil {
		h.writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// writeOpError translates orchestrator failures into the wire error shape.
func (h *handler) writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	var opErr *composite.Error
	if errors.As(err, &opErr) {
		if opErr.Code == composite.CodeBadGateway || opErr.Code == composite.CodeInternal {
			h.log.ErrorCtx(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
		}
		writeError(w, opErr.Code, opErr.HTTPStatus(), opErr.Message)
		return
	}
	h.log.ErrorCtx(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, composite.CodeInternal, http.StatusInternalServerError, "internal error")
}

func userIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, composite.CodeBadRequest, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

// queryFromURL maps ?filters onto an AddressQuery.
func queryFromURL(r *http.Request) (composite.AddressQuery, error) {
	var q composite.AddressQuery
	values := r.URL.Query()

	for _, f := range []struct {
		key  string
		dest **string
	}{
		{"name", &q.Name},
		{"street", &q.Street},
		{"unit", &q.Unit},
		{"city", &q.City},
		{"state", &q.State},
		{"postal_code", &q.PostalCode},
		{"country", &q.Country},
	} {
		if values.Has(f.key) {
			v := values.Get(f.key)
			*f.dest = &v
		}
	}

	for _, f := range []struct {
		key  string
		dest **int
	}{
		{"limit", &q.Limit},
		{"offset", &q.Offset},
	} {
		if values.Has(f.key) {
			n, err := strconv.Atoi(values.Get(f.key))
			if err != nil {
				return q, fmt.Errorf("invalid %s: %q", f.key, values.Get(f.key))
			}
			*f.dest = &n
		}
	}

	if values.Has("as_geojson") {
		b, err := strconv.ParseBool(values.Get("as_geojson"))
		if err != nil {
			return q, fmt.Errorf("invalid as_geojson: %q", values.Get("as_geojson"))
		}
		q.AsGeoJSON = &b
	}

	return q, nil
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code composite.Code, status int, message string) {
	writeJSON(w, status, map[string]string{"code": string(code), "error": message})
}
