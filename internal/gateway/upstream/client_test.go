package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRewritePythonLiterals(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare tokens", `{"a": None, "b": True, "c": False}`, `{"a": null, "b": true, "c": false}`},
		{"tokens inside strings untouched", `{"a": "None", "b": "say True"}`, `{"a": "None", "b": "say True"}`},
		{"word prefix untouched", `{"a": NoneSuch}`, `{"a": NoneSuch}`},
		{"escaped quote in string", `{"a": "x\"None", "b": None}`, `{"a": "x\"None", "b": null}`},
		{"already valid", `{"a": null}`, `{"a": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(rewritePythonLiterals([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("rewritePythonLiterals(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClient_TolerantDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id": 7, "phone": None, "active": True}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "users", Tolerant: true})
	doc, err := client.do(context.Background(), http.MethodGet, "/users/7", nil, nil)
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}

	if got := doc.Get("user_id").Int(); got != 7 {
		t.Errorf("user_id = %d, want 7", got)
	}
	if doc.Get("phone").Type.String() != "Null" {
		t.Errorf("phone should decode to null, got %v", doc.Get("phone"))
	}
	if !doc.Get("active").Bool() {
		t.Error("active should decode to true")
	}
}

func TestClient_StrictDecodeFailsWithoutTolerance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"phone": None}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "addresses"})
	_, err := client.do(context.Background(), http.MethodGet, "/addresses/x", nil, nil)
	if err == nil {
		t.Fatal("do() should fail on non-JSON body without tolerant mode")
	}
}

func TestClient_SlashRetry(t *testing.T) {
	var barePaths, slashPaths int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/addresses":
			barePaths++
			http.NotFound(w, r)
		case "/addresses/":
			slashPaths++
			json.NewEncoder(w).Encode(map[string]interface{}{"total": 3})
		}
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "addresses"})
	doc, err := client.doSlashRetry(context.Background(), http.MethodGet, "/addresses", nil, nil)
	if err != nil {
		t.Fatalf("doSlashRetry() error = %v", err)
	}
	if got := doc.Get("total").Int(); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
	if barePaths != 1 || slashPaths != 1 {
		t.Errorf("attempts = %d bare, %d slash; want 1 and 1", barePaths, slashPaths)
	}
}

func TestClient_SlashRetry_FirstAttemptWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/addresses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"total": 1})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "addresses"})
	if _, err := client.doSlashRetry(context.Background(), http.MethodGet, "/addresses", nil, nil); err != nil {
		t.Fatalf("doSlashRetry() error = %v", err)
	}
}

func TestClient_SlashRetry_LastFailureSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/addresses" {
			http.Error(w, "bare rejected", http.StatusNotFound)
			return
		}
		http.Error(w, "slash rejected", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "addresses"})
	_, err := client.doSlashRetry(context.Background(), http.MethodGet, "/addresses", nil, nil)
	se, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if se.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502 (the last failure)", se.StatusCode)
	}
}

func TestClient_NoSlashRetryOnTransportFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "addresses", Timeout: 20 * time.Millisecond})
	_, err := client.doSlashRetry(context.Background(), http.MethodGet, "/addresses", nil, nil)
	if err == nil {
		t.Fatal("doSlashRetry() should surface the timeout")
	}
	if _, ok := AsStatusError(err); ok {
		t.Errorf("timeout should not be a StatusError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no slash retry on transport failure)", attempts)
	}
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Service: "users"})
	_, err := client.do(context.Background(), http.MethodGet, "/users/1", nil, nil)
	se, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", se.StatusCode)
	}
	if se.Service != "users" {
		t.Errorf("Service = %s, want users", se.Service)
	}
	if IsNotFound(err) {
		t.Error("503 should not report as not found")
	}
}

func TestUsersClient_DeleteNormalizesEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	users := NewUsersClient(server.URL, time.Second)
	doc, err := users.Delete(context.Background(), 42)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := doc.Get("status").String(); got != "deleted" {
		t.Errorf("status = %q, want deleted", got)
	}
	if got := doc.Get("id").Int(); got != 42 {
		t.Errorf("id = %d, want 42", got)
	}
}

func TestAddressesClient_DeletePassesBodyThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "deleted", "id": "abc"})
	}))
	defer server.Close()

	addresses := NewAddressesClient(server.URL, time.Second)
	doc, err := addresses.Delete(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := doc.Get("id").String(); got != "abc" {
		t.Errorf("id = %q, want abc", got)
	}
}

func TestAddressesClient_ListOmitsEmptyFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("city") != "Seattle" {
			t.Errorf("city = %q, want Seattle", q.Get("city"))
		}
		if q.Has("state") {
			t.Error("empty state filter should be omitted")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}, "total": 0})
	}))
	defer server.Close()

	addresses := NewAddressesClient(server.URL, time.Second)
	_, err := addresses.List(context.Background(), map[string]string{"city": "Seattle", "state": ""})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
}
