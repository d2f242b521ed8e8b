// Package testutil provides fake atomic services for gateway tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FakeUsersService is an in-memory stand-in for the atomic Users service.
// Zero value quirk fields give well-behaved responses; set them to simulate
// the misbehaving upstreams the gateway has to absorb.
type FakeUsersService struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]map[string]interface{}

	// CreateStatus, when non-zero, fails every create with that status.
	CreateStatus int
	// GetStatus, when non-zero, fails every get with that status.
	GetStatus int
	// DeleteStatus, when non-zero, fails every delete with that status.
	DeleteStatus int
	// OmitIDOnCreate drops both user_id and id from create responses.
	OmitIDOnCreate bool
	// UseIDField makes create/get responses carry "id" instead of "user_id".
	UseIDField bool
	// PythonLiterals serializes get responses with None/True/False tokens.
	PythonLiterals bool
	// RequireTrailingSlash rejects bare /users on create with a 404.
	RequireTrailingSlash bool

	// Calls records "METHOD path" for every request received.
	Calls []string
}

// NewFakeUsersService creates an empty fake Users service.
func NewFakeUsersService() *FakeUsersService {
	return &FakeUsersService{nextID: 1, users: make(map[int64]map[string]interface{})}
}

// Server starts an httptest server for the fake.
func (f *FakeUsersService) Server() *httptest.Server {
	return httptest.NewServer(f)
}

// Seed inserts a user and returns its id.
func (f *FakeUsersService) Seed(fields map[string]interface{}) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	user := map[string]interface{}{}
	for k, v := range fields {
		user[k] = v
	}
	f.users[id] = user
	return id
}

// Has reports whether a user with id currently exists.
func (f *FakeUsersService) Has(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok
}

// CallCount returns how many requests matched the "METHOD path" prefix.
func (f *FakeUsersService) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.Calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeUsersService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.Calls = append(f.Calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && (r.URL.Path == "/users" || r.URL.Path == "/users/"):
		f.handleCreate(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/users/"):
		f.handleGet(w, r)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/users/"):
		f.handleDelete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeUsersService) handleCreate(w http.ResponseWriter, r *http.Request) {
	if f.RequireTrailingSlash && r.URL.Path == "/users" {
		http.NotFound(w, r)
		return
	}
	if f.CreateStatus != 0 {
		http.Error(w, "create refused", f.CreateStatus)
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.users[id] = payload
	f.mu.Unlock()

	resp := map[string]interface{}{}
	for k, v := range payload {
		resp[k] = v
	}
	if !f.OmitIDOnCreate {
		resp[f.idField()] = id
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (f *FakeUsersService) handleGet(w http.ResponseWriter, r *http.Request) {
	if f.GetStatus != 0 {
		http.Error(w, "get refused", f.GetStatus)
		return
	}

	id, ok := f.pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	user, exists := f.users[id]
	f.mu.Unlock()
	if !exists {
		http.NotFound(w, r)
		return
	}

	if f.PythonLiterals {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"%s": %d, "first_name": "John", "phone": None, "active": True, "deleted": False}`, f.idField(), id)
		return
	}

	resp := map[string]interface{}{f.idField(): id}
	for k, v := range user {
		resp[k] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeUsersService) handleDelete(w http.ResponseWriter, r *http.Request) {
	if f.DeleteStatus != 0 {
		http.Error(w, "delete refused", f.DeleteStatus)
		return
	}

	id, ok := f.pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	_, exists := f.users[id]
	delete(f.users, id)
	f.mu.Unlock()
	if !exists {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeUsersService) idField() string {
	if f.UseIDField {
		return "id"
	}
	return "user_id"
}

func (f *FakeUsersService) pathID(r *http.Request) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, "/users/")
	id, err := strconv.ParseInt(strings.TrimSuffix(raw, "/"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FakeAddressesService is an in-memory stand-in for the atomic Addresses
// service.
type FakeAddressesService struct {
	mu        sync.Mutex
	addresses map[string]map[string]interface{}

	// CreateStatus, when non-zero, fails every create with that status.
	CreateStatus int
	// GetStatus maps address ids to forced failure statuses for Get.
	GetStatus map[string]int
	// EnvelopeData wraps create responses as {"data": {...}}.
	EnvelopeData bool
	// OmitIDOnCreate drops the generated id from create responses.
	OmitIDOnCreate bool
	// RequireTrailingSlash rejects bare /addresses on list and create.
	RequireTrailingSlash bool
	// RejectUserID fails creates carrying a user_id field, mirroring an
	// atomic service with strict schema validation.
	RejectUserID bool
	// EmptyDeleteBody answers deletes with a bare 204 instead of a body.
	EmptyDeleteBody bool

	// LastListQuery captures the filters of the most recent list call.
	LastListQuery url.Values
	// Calls records "METHOD path" for every request received.
	Calls []string
}

// NewFakeAddressesService creates an empty fake Addresses service.
func NewFakeAddressesService() *FakeAddressesService {
	return &FakeAddressesService{
		addresses:       make(map[string]map[string]interface{}),
		GetStatus:       make(map[string]int),
		EmptyDeleteBody: true,
	}
}

// Server starts an httptest server for the fake.
func (f *FakeAddressesService) Server() *httptest.Server {
	return httptest.NewServer(f)
}

// Seed inserts an address and returns its generated id.
func (f *FakeAddressesService) Seed(fields map[string]interface{}) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	addr := map[string]interface{}{"id": id}
	for k, v := range fields {
		addr[k] = v
	}
	f.addresses[id] = addr
	return id
}

// Has reports whether an address with id currently exists.
func (f *FakeAddressesService) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.addresses[id]
	return ok
}

// CallCount returns how many requests matched the "METHOD path" prefix.
func (f *FakeAddressesService) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.Calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeAddressesService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.Calls = append(f.Calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	isCollection := r.URL.Path == "/addresses" || r.URL.Path == "/addresses/"
	switch {
	case r.Method == http.MethodGet && isCollection:
		f.handleList(w, r)
	case r.Method == http.MethodPost && isCollection:
		f.handleCreate(w, r)
	case r.Method == http.MethodGet:
		f.handleGet(w, r)
	case r.Method == http.MethodDelete:
		f.handleDelete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeAddressesService) handleList(w http.ResponseWriter, r *http.Request) {
	if f.RequireTrailingSlash && r.URL.Path == "/addresses" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	f.LastListQuery = r.URL.Query()
	data := make([]map[string]interface{}, 0, len(f.addresses))
	for _, addr := range f.addresses {
		data = append(data, addr)
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"links": []interface{}{},
		"total": len(data),
	})
}

func (f *FakeAddressesService) handleCreate(w http.ResponseWriter, r *http.Request) {
	if f.RequireTrailingSlash && r.URL.Path == "/addresses" {
		http.NotFound(w, r)
		return
	}
	if f.CreateStatus != 0 {
		http.Error(w, "create refused", f.CreateStatus)
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if _, hasUserID := payload["user_id"]; hasUserID && f.RejectUserID {
		http.Error(w, "unknown field user_id", http.StatusUnprocessableEntity)
		return
	}

	f.mu.Lock()
	id := uuid.NewString()
	addr := map[string]interface{}{"id": id}
	for k, v := range payload {
		if k == "user_id" {
			continue
		}
		addr[k] = v
	}
	f.addresses[id] = addr
	f.mu.Unlock()

	resp := map[string]interface{}{}
	for k, v := range addr {
		resp[k] = v
	}
	if f.OmitIDOnCreate {
		delete(resp, "id")
	}
	if f.EnvelopeData {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": resp})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (f *FakeAddressesService) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/addresses/")

	f.mu.Lock()
	status := f.GetStatus[id]
	addr, exists := f.addresses[id]
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "get refused", status)
		return
	}
	if !exists {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (f *FakeAddressesService) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/addresses/")

	f.mu.Lock()
	_, exists := f.addresses[id]
	delete(f.addresses, id)
	f.mu.Unlock()

	if !exists {
		http.NotFound(w, r)
		return
	}
	if f.EmptyDeleteBody {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted", "id": id})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
