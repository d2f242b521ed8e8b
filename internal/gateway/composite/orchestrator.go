// Package composite implements the multi-service operations the gateway
// exposes: composite creates with referential checks, a two-phase create
// with compensating rollback, and concurrent read fan-outs that merge
// records from the atomic Users and Addresses services.
package composite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/microfabric/composite-gateway/internal/gateway/relation"
	"github.com/microfabric/composite-gateway/internal/gateway/upstream"
	"github.com/microfabric/composite-gateway/internal/logging"
)

// UserService is the narrow contract against the atomic Users service.
type UserService interface {
	Get(ctx context.Context, id int64) (upstream.Document, error)
	Create(ctx context.Context, payload map[string]interface{}) (upstream.Document, error)
	Delete(ctx context.Context, id int64) (upstream.Document, error)
}

// AddressService is the narrow contract against the atomic Addresses service.
type AddressService interface {
	List(ctx context.Context, filters map[string]string) (upstream.Document, error)
	Get(ctx context.Context, id string) (upstream.Document, error)
	Create(ctx context.Context, payload map[string]interface{}) (upstream.Document, error)
	Delete(ctx context.Context, id string) (upstream.Document, error)
}

// Orchestrator sequences composite operations across the two atomic
// services, maintaining the logical address-to-user link neither of them
// knows about.
type Orchestrator struct {
	users     UserService
	addresses AddressService
	links     *relation.Store
	exec      *Executor
	log       *logging.Logger
}

// Config wires an Orchestrator.
type Config struct {
	Users     UserService
	Addresses AddressService
	Links     *relation.Store
	// FanoutWorkers caps concurrent fetches within one read composite.
	FanoutWorkers int
	Logger        *logging.Logger
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Orchestrator{
		users:     cfg.Users,
		addresses: cfg.Addresses,
		links:     cfg.Links,
		exec:      NewExecutor(cfg.FanoutWorkers),
		log:       log,
	}
}

// ListAddresses forwards the filtered listing to the Addresses service.
func (o *Orchestrator) ListAddresses(ctx context.Context, q AddressQuery) (upstream.Document, error) {
	doc, err := o.addresses.List(ctx, q.Filters())
	if err != nil {
		return upstream.Document{}, upstreamError(err, "list addresses")
	}
	return doc, nil
}

// GetUser passes a user read through, translating upstream 404s.
func (o *Orchestrator) GetUser(ctx context.Context, id int64) (upstream.Document, error) {
	doc, err := o.users.Get(ctx, id)
	if err != nil {
		if upstream.IsNotFound(err) {
			return upstream.Document{}, notFound("user %d not found", id)
		}
		return upstream.Document{}, upstreamError(err, fmt.Sprintf("get user %d", id))
	}
	return doc, nil
}

// CreateUser passes a user create through to the Users service.
func (o *Orchestrator) CreateUser(ctx context.Context, payload map[string]interface{}) (upstream.Document, error) {
	if len(payload) == 0 {
		return upstream.Document{}, badRequest("user payload is required")
	}
	doc, err := o.users.Create(ctx, payload)
	if err != nil {
		return upstream.Document{}, upstreamError(err, "create user")
	}
	return doc, nil
}

// DeleteUser passes a user delete through, translating upstream 404s.
func (o *Orchestrator) DeleteUser(ctx context.Context, id int64) (upstream.Document, error) {
	doc, err := o.users.Delete(ctx, id)
	if err != nil {
		if upstream.IsNotFound(err) {
			return upstream.Document{}, notFound("user %d not found", id)
		}
		return upstream.Document{}, upstreamError(err, fmt.Sprintf("delete user %d", id))
	}
	return doc, nil
}

// DeleteAddress delegates the delete and drops the logical link. The unlink
// happens even when the upstream reports the address already gone, so a
// repeated delete never leaves a dangling entry.
func (o *Orchestrator) DeleteAddress(ctx context.Context, id string) (upstream.Document, error) {
	doc, err := o.addresses.Delete(ctx, id)
	if err != nil {
		if upstream.IsNotFound(err) {
			o.links.Unlink(id)
			return upstream.Document{}, notFound("address %s not found", id)
		}
		return upstream.Document{}, upstreamError(err, fmt.Sprintf("delete address %s", id))
	}
	o.links.Unlink(id)
	return doc, nil
}

// CreateAddress performs the validated composite create: the payload must
// carry a user_id referencing an existing user. The user_id never reaches
// the Addresses service, which has no such field; on success the link is
// recorded gateway-side instead.
func (o *Orchestrator) CreateAddress(ctx context.Context, payload map[string]interface{}) (*CompositeAddress, error) {
	userID, ok := userIDFromPayload(payload)
	if !ok {
		return nil, badRequest("user_id is required")
	}

	if _, err := o.users.Get(ctx, userID); err != nil {
		if upstream.IsNotFound(err) {
			return nil, badRequest("user %d does not exist", userID)
		}
		return nil, upstreamError(err, fmt.Sprintf("verify user %d", userID))
	}

	body := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		if key == "user_id" {
			continue
		}
		body[key] = value
	}

	created, err := o.addresses.Create(ctx, body)
	if err != nil {
		return nil, upstreamError(err, "create address")
	}

	addressID, ok := extractAddressID(created)
	if !ok {
		return nil, badGateway(nil, "create address: upstream response carries no id")
	}
	o.links.Link(addressID, userID)

	return &CompositeAddress{Address: created, UserID: userID}, nil
}

// CreateUserWithAddress runs the two-phase combined create. Phase 2 strictly
// follows phase 1's success; if the address cannot be created the
// just-created user is deleted as best-effort compensation, and that
// cleanup's own failure never masks the original one.
func (o *Orchestrator) CreateUserWithAddress(ctx context.Context, req UserWithAddressRequest) (*UserWithAddress, error) {
	if len(req.User) == 0 {
		return nil, badRequest("user payload is required")
	}
	if len(req.Address) == 0 {
		return nil, badRequest("address payload is required")
	}

	user, err := o.users.Create(ctx, req.User)
	if err != nil {
		return nil, upstreamError(err, "create user")
	}

	userID, ok := extractUserID(user)
	if !ok {
		return nil, badGateway(nil, "create user: upstream response carries no user id")
	}

	addressPayload := make(map[string]interface{}, len(req.Address)+1)
	for key, value := range req.Address {
		addressPayload[key] = value
	}
	addressPayload["user_id"] = userID

	address, err := o.addresses.Create(ctx, addressPayload)
	if err != nil {
		o.compensateUser(ctx, userID)
		return nil, upstreamError(err, "create address")
	}

	if addressID, ok := extractAddressID(address); ok {
		o.links.Link(addressID, userID)
	} else {
		return nil, badGateway(nil, "create address: upstream response carries no id")
	}

	return &UserWithAddress{User: user, Address: address}, nil
}

// compensateUser deletes a user created by a combined operation whose later
// phase failed. The delete is best effort; its own failure is logged and
// swallowed so the originating error reaches the caller intact.
func (o *Orchestrator) compensateUser(ctx context.Context, userID int64) {
	if _, err := o.users.Delete(ctx, userID); err != nil {
		o.log.WarnCtx(ctx, "compensating delete of user %d failed: %v", userID, err)
	}
}

// AddressesForUser fans out over the addresses linked to userID. A link
// without a store entry short-circuits to an empty list; an individual fetch
// failure (address deleted upstream after linking) shrinks the result set
// instead of failing the operation.
func (o *Orchestrator) AddressesForUser(ctx context.Context, userID int64) (*UserAddresses, error) {
	ids := o.links.AddressesForUser(userID)
	if len(ids) == 0 {
		return &UserAddresses{UserID: userID, Addresses: []upstream.Document{}}, nil
	}

	docs := o.exec.Collect(ctx, ids, o.addresses.Get)
	if len(docs) < len(ids) {
		o.log.WarnCtx(ctx, "user %d: %d of %d linked addresses failed to fetch", userID, len(ids)-len(docs), len(ids))
	}
	if docs == nil {
		docs = []upstream.Document{}
	}
	return &UserAddresses{UserID: userID, Addresses: docs}, nil
}

// UserProfile fetches the user record and the linked addresses
// concurrently. A failed user fetch fails the profile; a degraded address
// fan-out only shrinks the address list.
func (o *Orchestrator) UserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	var (
		wg      sync.WaitGroup
		user    upstream.Document
		userErr error
		addrs   *UserAddresses
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = o.users.Get(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		addrs, _ = o.AddressesForUser(ctx, userID)
	}()
	wg.Wait()

	if userErr != nil {
		return nil, notFound("user %d not found", userID)
	}

	addresses := []upstream.Document{}
	if addrs != nil {
		addresses = addrs.Addresses
	}
	return &UserProfile{User: user, Addresses: addresses}, nil
}

// userIDFromPayload pulls the numeric user_id out of a decoded JSON object.
func userIDFromPayload(payload map[string]interface{}) (int64, bool) {
	raw, ok := payload["user_id"]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// extractUserID reads the created user's id, accepting either the user_id
// or the id field. Upstreams disagree on which one they emit.
func extractUserID(doc upstream.Document) (int64, bool) {
	res := doc.Get("user_id")
	if !res.Exists() {
		res = doc.Get("id")
	}
	if !res.Exists() {
		return 0, false
	}
	return res.Int(), true
}

// extractAddressID reads the created address's id from the top level or the
// data envelope, whichever the upstream used.
func extractAddressID(doc upstream.Document) (string, bool) {
	res := doc.Get("id")
	if !res.Exists() {
		res = doc.Get("data.id")
	}
	if !res.Exists() || res.String() == "" {
		return "", false
	}
	return res.String(), true
}
