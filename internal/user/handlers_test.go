package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

//
// ===== IN-MEMORY STUB (implements Repository) =====
//

type stubRepo struct {
	users map[string]*User
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*User)}
}

func (s *stubRepo) emailInUse(email, exceptID string) bool {
	for _, u := range s.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *stubRepo) Create(ctx context.Context, u *User) error {
	if s.emailInUse(u.Email, u.ID) {
		return ErrEmailTaken
	}
	cp := *u
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.users[u.ID] = &cp
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) GetActiveByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range s.users {
		if u.Email == email && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRepo) GetActiveByID(ctx context.Context, id string) (*User, error) {
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubRepo) ListByRole(ctx context.Context, role string) ([]User, error) {
	var out []User
	for _, u := range s.users {
		if u.Role == role && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, u *User) error {
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	if s.emailInUse(u.Email, u.ID) {
		return ErrEmailTaken
	}
	cp := *u
	cp.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = &cp
	return nil
}

func (s *stubRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Password = hash
	return nil
}

func (s *stubRepo) Deactivate(ctx context.Context, id string) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	return nil
}

//
// ===== TEST ROUTER =====
//

func newRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(repo, true)

	r := gin.New()
	r.GET("/users", h.List)
	r.GET("/users/role/:role", h.ListByRole)
	r.GET("/users/:id", h.Get)
	r.POST("/users", h.Create)
	r.PUT("/users/:id", h.Update)
	r.PATCH("/users/:id/password", h.UpdatePassword)
	r.DELETE("/users/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
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
	r.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

//
// ===== TESTS =====
//

func TestCreateUser(t *testing.T) {
	repo := newStubRepo()
	r := newRouter(repo)

	valid := func() CreateUserRequest {
		return CreateUserRequest{
			Email: "jane@test.local", Password: "hunter22",
			FirstName: "Jane", LastName: "Doe", Phone: "+254700000000",
		}
	}

	// missing required fields
	{
		req := valid()
		req.Phone = ""
		if w := doJSON(t, r, http.MethodPost, "/users", req); w.Code != http.StatusBadRequest {
			t.Fatalf("missing phone: status=%d", w.Code)
		}
	}
	// bogus role
	{
		req := valid()
		req.Role = "wizard"
		if w := doJSON(t, r, http.MethodPost, "/users", req); w.Code != http.StatusBadRequest {
			t.Fatalf("bogus role: status=%d", w.Code)
		}
	}
	// success: role defaults, password hashed and never serialized
	{
		w := doJSON(t, r, http.MethodPost, "/users", valid())
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got User
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got.Role != RoleCustomer || !got.IsActive {
			t.Fatalf("role=%q isActive=%v", got.Role, got.IsActive)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("hunter22")) {
			t.Fatalf("password leaked: %s", w.Body.String())
		}
		stored := repo.users[got.ID]
		if stored.Password == "hunter22" || !CheckPassword(stored.Password, "hunter22") {
			t.Fatalf("password not hashed correctly")
		}
	}
	// duplicate email
	{
		if w := doJSON(t, r, http.MethodPost, "/users", valid()); w.Code != http.StatusBadRequest {
			t.Fatalf("duplicate email: status=%d", w.Code)
		}
	}
}

func TestGetUser(t *testing.T) {
	repo := newStubRepo()
	repo.users["u-1"] = &User{ID: "u-1", Email: "jane@test.local", Role: RoleCustomer, IsActive: true}
	r := newRouter(repo)

	if w := doJSON(t, r, http.MethodGet, "/users/u-1", nil); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/users/ghost", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status=%d", w.Code)
	}
}

func TestUpdateUser_PartialFields(t *testing.T) {
	repo := newStubRepo()
	repo.users["u-1"] = &User{
		ID: "u-1", Email: "jane@test.local", FirstName: "Jane", LastName: "Doe",
		Phone: "+254700000000", Role: RoleCustomer, IsActive: true,
	}
	r := newRouter(repo)

	// only the supplied fields change
	w := doJSON(t, r, http.MethodPut, "/users/u-1", UpdateUserRequest{
		Phone:   strPtr("+254711111111"),
		Address: strPtr("Ngong Road 5"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	u := repo.users["u-1"]
	if u.Phone != "+254711111111" || u.Address == nil || *u.Address != "Ngong Road 5" {
		t.Fatalf("update not applied: %+v", u)
	}
	if u.FirstName != "Jane" || u.Email != "jane@test.local" {
		t.Fatalf("untouched fields changed: %+v", u)
	}

	// invalid role rejected
	if w := doJSON(t, r, http.MethodPut, "/users/u-1", UpdateUserRequest{Role: strPtr("wizard")}); w.Code != http.StatusBadRequest {
		t.Fatalf("bogus role: status=%d", w.Code)
	}
	// role promotion accepted
	if w := doJSON(t, r, http.MethodPut, "/users/u-1", UpdateUserRequest{Role: strPtr(RoleDriver)}); w.Code != http.StatusOK {
		t.Fatalf("promote to driver: status=%d", w.Code)
	}
	if repo.users["u-1"].Role != RoleDriver {
		t.Fatalf("role=%q, want driver", repo.users["u-1"].Role)
	}
	// unknown user
	if w := doJSON(t, r, http.MethodPut, "/users/ghost", UpdateUserRequest{}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status=%d", w.Code)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo := newStubRepo()
	hash, _ := HashPassword("hunter22")
	repo.users["u-1"] = &User{ID: "u-1", Email: "jane@test.local", Password: hash, Role: RoleCustomer, IsActive: true}
	r := newRouter(repo)

	// wrong current password
	{
		w := doJSON(t, r, http.MethodPatch, "/users/u-1/password",
			UpdatePasswordRequest{CurrentPassword: "wrong", NewPassword: "hunter23"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("wrong current: status=%d", w.Code)
		}
	}
	// missing fields
	{
		w := doJSON(t, r, http.MethodPatch, "/users/u-1/password",
			UpdatePasswordRequest{CurrentPassword: "hunter22"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing new password: status=%d", w.Code)
		}
	}
	// success
	{
		w := doJSON(t, r, http.MethodPatch, "/users/u-1/password",
			UpdatePasswordRequest{CurrentPassword: "hunter22", NewPassword: "hunter23"})
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if !CheckPassword(repo.users["u-1"].Password, "hunter23") {
			t.Fatalf("new password not stored")
		}
	}
}

func TestDeleteUser_SoftDelete(t *testing.T) {
	repo := newStubRepo()
	repo.users["u-1"] = &User{ID: "u-1", Email: "jane@test.local", Role: RoleCustomer, IsActive: true}
	r := newRouter(repo)

	w := doJSON(t, r, http.MethodDelete, "/users/u-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	u, ok := repo.users["u-1"]
	if !ok {
		t.Fatalf("user removed; expected soft delete")
	}
	if u.IsActive {
		t.Fatalf("user still active after delete")
	}

	if w := doJSON(t, r, http.MethodDelete, "/users/ghost", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status=%d", w.Code)
	}
}

func TestListByRole(t *testing.T) {
	repo := newStubRepo()
	repo.users["c-1"] = &User{ID: "c-1", Email: "c1@test.local", Role: RoleCustomer, IsActive: true}
	repo.users["d-1"] = &User{ID: "d-1", Email: "d1@test.local", Role: RoleDriver, IsActive: true}
	repo.users["d-2"] = &User{ID: "d-2", Email: "d2@test.local", Role: RoleDriver, IsActive: false}
	r := newRouter(repo)

	// invalid role in path
	if w := doJSON(t, r, http.MethodGet, "/users/role/wizard", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid role: status=%d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/users/role/driver", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got []User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d-1" {
		t.Fatalf("drivers=%+v, want only d-1", got)
	}
}
