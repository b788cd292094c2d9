package customers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

type stubCustomersRepo struct {
	customers map[string]Customer
	addresses []Address

	lastList     ListCustomersRequest
	lastUpserted Address
}

func newStubCustomersRepo(cs ...Customer) *stubCustomersRepo {
	r := &stubCustomersRepo{customers: map[string]Customer{}}
	for _, c := range cs {
		r.customers[c.ID] = c
	}
	return r
}

func (r *stubCustomersRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	r.lastList = req
	return nil, 0, nil
}

func (r *stubCustomersRepo) Get(_ context.Context, id string) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *stubCustomersRepo) Create(_ context.Context, c Customer) (Customer, error) {
	c.ID = "c-new"
	r.customers[c.ID] = c
	return c, nil
}

func (r *stubCustomersRepo) Save(_ context.Context, c Customer) (Customer, error) {
	r.customers[c.ID] = c
	return c, nil
}

func (r *stubCustomersRepo) Delete(_ context.Context, id string) error {
	delete(r.customers, id)
	return nil
}

func (r *stubCustomersRepo) Addresses(_ context.Context, _ string) ([]Address, error) {
	return r.addresses, nil
}

func (r *stubCustomersRepo) UpsertAddress(_ context.Context, a Address) (Address, error) {
	if a.ID == "" {
		a.ID = "a-new"
	}
	r.lastUpserted = a
	return a, nil
}

type captureAuditStore struct {
	entries []audit.Entry
}

func (c *captureAuditStore) Insert(_ context.Context, e audit.Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func newCustomersService(repo RepositoryPort, store audit.Store) *Service {
	rec := audit.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(repo, rec)
}

func TestCreateTrimsFieldsAndAudits(t *testing.T) {
	repo := newStubCustomersRepo()
	store := &captureAuditStore{}
	svc := newCustomersService(repo, store)

	customer, err := svc.Create(context.Background(), "admin-1", CreateCustomerRequest{
		Name:         "  Almacén Doña Rosa  ",
		CustomerType: "Empresa",
		Commune:      " Maipú ",
		Price:        2500,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if customer.Name != "Almacén Doña Rosa" || customer.Commune != "Maipú" {
		t.Fatalf("customer = %+v", customer)
	}
	if len(store.entries) != 1 || store.entries[0].Action != audit.ActionCustomerCreated {
		t.Fatalf("audit = %+v", store.entries)
	}
}

func TestUpdateAuditsBeforeAndAfter(t *testing.T) {
	repo := newStubCustomersRepo(Customer{ID: "c1", Name: "Antes", Commune: "Pudahuel", Price: 2000})
	store := &captureAuditStore{}
	svc := newCustomersService(repo, store)

	price := 2300.0
	after, err := svc.Update(context.Background(), "admin-1", "c1", UpdateCustomerRequest{Price: &price})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if after.Price != 2300 || after.Name != "Antes" {
		t.Fatalf("after = %+v", after)
	}
	e := store.entries[0]
	if e.Action != audit.ActionCustomerUpdated {
		t.Fatalf("action = %s", e.Action)
	}
	if e.OldValue["price"] != 2000.0 || e.NewValue["price"] != 2300.0 {
		t.Fatalf("audit values = %v -> %v", e.OldValue, e.NewValue)
	}
}

func TestDeleteAuditsFinalSnapshot(t *testing.T) {
	repo := newStubCustomersRepo(Customer{ID: "c1", Name: "Cliente", CustomerType: TypeHogar})
	store := &captureAuditStore{}
	svc := newCustomersService(repo, store)

	if err := svc.Delete(context.Background(), "admin-1", "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	e := store.entries[0]
	if e.Action != audit.ActionCustomerDeleted || e.OldValue["name"] != "Cliente" {
		t.Fatalf("audit entry = %+v", e)
	}
}

func TestUpsertAddressRequiresExistingCustomer(t *testing.T) {
	svc := newCustomersService(newStubCustomersRepo(), &captureAuditStore{})

	_, err := svc.UpsertAddress(context.Background(), "ghost", "", UpsertAddressRequest{RawAddress: "Calle 1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertAddressTrimsAndBindsCustomer(t *testing.T) {
	repo := newStubCustomersRepo(Customer{ID: "c1", Name: "Cliente"})
	svc := newCustomersService(repo, &captureAuditStore{})

	addr, err := svc.UpsertAddress(context.Background(), "c1", "", UpsertAddressRequest{
		RawAddress: " Av. Pajaritos 2700 ",
		Commune:    "Maipú",
		IsDefault:  true,
	})
	if err != nil {
		t.Fatalf("UpsertAddress: %v", err)
	}
	if addr.RawAddress != "Av. Pajaritos 2700" || addr.CustomerID != "c1" || !addr.IsDefault {
		t.Fatalf("address = %+v", addr)
	}
	if repo.lastUpserted.CustomerID != "c1" {
		t.Fatalf("upserted = %+v", repo.lastUpserted)
	}
}

func TestUpsertAddressNotifiesPendingGeocode(t *testing.T) {
	repo := newStubCustomersRepo(Customer{ID: "c1", Name: "Cliente"})
	svc := newCustomersService(repo, &captureAuditStore{})

	notified := 0
	svc.OnPendingGeocode = func(context.Context) { notified++ }

	if _, err := svc.UpsertAddress(context.Background(), "c1", "", UpsertAddressRequest{RawAddress: "Calle 1"}); err != nil {
		t.Fatalf("UpsertAddress: %v", err)
	}
	if notified != 1 {
		t.Fatalf("notified = %d, want 1", notified)
	}

	lat, lng := -33.51, -70.76
	if _, err := svc.UpsertAddress(context.Background(), "c1", "a-new", UpsertAddressRequest{
		RawAddress: "Calle 1",
		Latitude:   &lat,
		Longitude:  &lng,
	}); err != nil {
		t.Fatalf("UpsertAddress: %v", err)
	}
	if notified != 1 {
		t.Fatalf("notified = %d after geocoded upsert, want 1", notified)
	}
}

func TestListClampsPaging(t *testing.T) {
	repo := newStubCustomersRepo()
	svc := newCustomersService(repo, &captureAuditStore{})

	if _, _, err := svc.List(context.Background(), ListCustomersRequest{Limit: 1000, Offset: -5}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.lastList.Limit != 200 || repo.lastList.Offset != 0 {
		t.Fatalf("list request = %+v", repo.lastList)
	}
}
