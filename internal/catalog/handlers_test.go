package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

//
// ===== IN-MEMORY STUBS =====
//

type stubSupplierRepo struct {
	suppliers map[string]*Supplier
	cyls      *stubCylinderRepo
}

func newStubSupplierRepo(cyls *stubCylinderRepo) *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[string]*Supplier), cyls: cyls}
}

func (s *stubSupplierRepo) Create(ctx context.Context, sup *Supplier) error {
	cp := *sup
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.suppliers[sup.ID] = &cp
	return nil
}

func (s *stubSupplierRepo) GetByID(ctx context.Context, id string) (*Supplier, error) {
	sup, ok := s.suppliers[id]
	if !ok {
		return nil, ErrSupplierNotFound
	}
	cp := *sup
	return &cp, nil
}

func (s *stubSupplierRepo) ListActive(ctx context.Context) ([]Supplier, error) {
	out := make([]Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		if !sup.IsActive {
			continue
		}
		cp := *sup
		for _, c := range s.cyls.cylinders {
			if c.SupplierID == sup.ID {
				cp.GasCylinders = append(cp.GasCylinders, *c)
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type stubCylinderRepo struct {
	cylinders map[string]*GasCylinder
}

func newStubCylinderRepo() *stubCylinderRepo {
	return &stubCylinderRepo{cylinders: make(map[string]*GasCylinder)}
}

func (s *stubCylinderRepo) Create(ctx context.Context, c *GasCylinder) error {
	cp := *c
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.cylinders[c.ID] = &cp
	return nil
}

func (s *stubCylinderRepo) GetByID(ctx context.Context, id string) (*GasCylinder, error) {
	c, ok := s.cylinders[id]
	if !ok {
		return nil, ErrCylinderNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubCylinderRepo) ListAvailable(ctx context.Context) ([]GasCylinder, error) {
	var out []GasCylinder
	for _, c := range s.cylinders {
		if c.IsAvailable {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	return out, nil
}

func (s *stubCylinderRepo) Update(ctx context.Context, c *GasCylinder) error {
	if _, ok := s.cylinders[c.ID]; !ok {
		return ErrCylinderNotFound
	}
	cp := *c
	cp.UpdatedAt = time.Now().UTC()
	s.cylinders[c.ID] = &cp
	return nil
}

func (s *stubCylinderRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.cylinders[id]; !ok {
		return ErrCylinderNotFound
	}
	delete(s.cylinders, id)
	return nil
}

//
// ===== TEST ROUTER =====
//

type fixture struct {
	suppliers *stubSupplierRepo
	cylinders *stubCylinderRepo
	router    *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cyls := newStubCylinderRepo()
	sups := newStubSupplierRepo(cyls)

	sh := NewSupplierHandlers(sups, true)
	ch := NewCylinderHandlers(cyls, sups, true)

	r := gin.New()
	r.GET("/suppliers", sh.List)
	r.POST("/suppliers", sh.Create)
	r.GET("/gas-cylinders", ch.List)
	r.GET("/gas-cylinders/:id", ch.Get)
	r.POST("/gas-cylinders", ch.Create)
	r.PUT("/gas-cylinders/:id", ch.Update)
	r.DELETE("/gas-cylinders/:id", ch.Delete)

	return &fixture{suppliers: sups, cylinders: cyls, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seedSupplier(id string) {
	f.suppliers.suppliers[id] = &Supplier{
		ID: id, Name: "Supplier " + id, ContactPerson: "Peter K.",
		Phone: "+254711000000", Address: "Industrial Area", IsActive: true,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }

//
// ===== TESTS =====
//

func TestCreateSupplier(t *testing.T) {
	f := newFixture(t)

	// missing required fields
	{
		w := f.do(t, http.MethodPost, "/suppliers", CreateSupplierRequest{Name: "Acme"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing fields: status=%d", w.Code)
		}
	}
	// success
	{
		w := f.do(t, http.MethodPost, "/suppliers", CreateSupplierRequest{
			Name: "Nairobi Gas Ltd", ContactPerson: "Peter K.",
			Phone: "+254711000000", Address: "Industrial Area, Nairobi",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got Supplier
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got.ID == "" || !got.IsActive {
			t.Fatalf("created supplier: %+v", got)
		}
	}
}

func TestListSuppliers_AttachesCylinders(t *testing.T) {
	f := newFixture(t)
	f.seedSupplier("sup-1")
	f.seedSupplier("sup-2")
	f.suppliers.suppliers["sup-3"] = &Supplier{ID: "sup-3", Name: "Inactive", IsActive: false}
	f.cylinders.cylinders["cyl-1"] = &GasCylinder{ID: "cyl-1", Name: "K-Gas 13kg", Weight: "13.00", Price: "3200.00", SupplierID: "sup-1", IsAvailable: true}

	w := f.do(t, http.MethodGet, "/suppliers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got []Supplier
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("suppliers=%d, want 2 (inactive excluded)", len(got))
	}
	for _, s := range got {
		switch s.ID {
		case "sup-1":
			if len(s.GasCylinders) != 1 || s.GasCylinders[0].ID != "cyl-1" {
				t.Fatalf("sup-1 cylinders=%+v", s.GasCylinders)
			}
		case "sup-2":
			if len(s.GasCylinders) != 0 {
				t.Fatalf("sup-2 cylinders=%+v", s.GasCylinders)
			}
		}
	}
}

func TestCreateCylinder(t *testing.T) {
	f := newFixture(t)
	f.seedSupplier("sup-1")

	valid := func() CreateCylinderRequest {
		return CreateCylinderRequest{
			Name: "K-Gas 13kg", Weight: "13", Price: "3200.5",
			SupplierID: "sup-1", StockQuantity: 25,
		}
	}

	// unknown supplier
	{
		req := valid()
		req.SupplierID = "ghost"
		if w := f.do(t, http.MethodPost, "/gas-cylinders", req); w.Code != http.StatusBadRequest {
			t.Fatalf("unknown supplier: status=%d", w.Code)
		}
	}
	// negative price
	{
		req := valid()
		req.Price = "-5"
		if w := f.do(t, http.MethodPost, "/gas-cylinders", req); w.Code != http.StatusBadRequest {
			t.Fatalf("negative price: status=%d", w.Code)
		}
	}
	// non-numeric weight
	{
		req := valid()
		req.Weight = "heavy"
		if w := f.do(t, http.MethodPost, "/gas-cylinders", req); w.Code != http.StatusBadRequest {
			t.Fatalf("bad weight: status=%d", w.Code)
		}
	}
	// negative stock
	{
		req := valid()
		req.StockQuantity = -1
		if w := f.do(t, http.MethodPost, "/gas-cylinders", req); w.Code != http.StatusBadRequest {
			t.Fatalf("negative stock: status=%d", w.Code)
		}
	}
	// success normalizes amounts to two decimals
	{
		w := f.do(t, http.MethodPost, "/gas-cylinders", valid())
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got GasCylinder
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got.Weight != "13.00" || got.Price != "3200.50" {
			t.Fatalf("weight=%q price=%q, want 13.00/3200.50", got.Weight, got.Price)
		}
		if !got.IsAvailable {
			t.Fatalf("new cylinder not available")
		}
	}
}

func TestUpdateCylinder_PartialFields(t *testing.T) {
	f := newFixture(t)
	f.seedSupplier("sup-1")
	f.cylinders.cylinders["cyl-1"] = &GasCylinder{
		ID: "cyl-1", Name: "K-Gas 13kg", Weight: "13.00", Price: "3200.00",
		SupplierID: "sup-1", StockQuantity: 10, IsAvailable: true,
	}

	w := f.do(t, http.MethodPut, "/gas-cylinders/cyl-1", UpdateCylinderRequest{
		Price:         strPtr("3100"),
		StockQuantity: intPtr(42),
		IsAvailable:   boolPtr(false),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	cyl := f.cylinders.cylinders["cyl-1"]
	if cyl.Price != "3100.00" || cyl.StockQuantity != 42 || cyl.IsAvailable {
		t.Fatalf("update not applied: %+v", cyl)
	}
	if cyl.Name != "K-Gas 13kg" || cyl.Weight != "13.00" {
		t.Fatalf("untouched fields changed: %+v", cyl)
	}

	// negative stock rejected
	if w := f.do(t, http.MethodPut, "/gas-cylinders/cyl-1", UpdateCylinderRequest{StockQuantity: intPtr(-1)}); w.Code != http.StatusBadRequest {
		t.Fatalf("negative stock: status=%d", w.Code)
	}
	// unknown cylinder
	if w := f.do(t, http.MethodPut, "/gas-cylinders/ghost", UpdateCylinderRequest{}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown cylinder: status=%d", w.Code)
	}
}

func TestListCylinders_OnlyAvailable(t *testing.T) {
	f := newFixture(t)
	f.cylinders.cylinders["a"] = &GasCylinder{ID: "a", Name: "6kg", Weight: "06.00", IsAvailable: true}
	f.cylinders.cylinders["b"] = &GasCylinder{ID: "b", Name: "13kg", Weight: "13.00", IsAvailable: false}

	w := f.do(t, http.MethodGet, "/gas-cylinders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got []GasCylinder
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("cylinders=%+v, want only a", got)
	}
}

func TestDeleteCylinder(t *testing.T) {
	f := newFixture(t)
	f.cylinders.cylinders["cyl-1"] = &GasCylinder{ID: "cyl-1", Name: "K-Gas 13kg"}

	if w := f.do(t, http.MethodDelete, "/gas-cylinders/cyl-1", nil); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if _, ok := f.cylinders.cylinders["cyl-1"]; ok {
		t.Fatalf("cylinder still present after delete")
	}
	if w := f.do(t, http.MethodDelete, "/gas-cylinders/cyl-1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status=%d", w.Code)
	}
}
