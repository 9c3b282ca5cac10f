package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubRepository struct {
	records    []Order
	listErr    error
	savedInput *Input
	saveID     int64
	saveErr    error
	deletedID  int64
	found      bool
	lastUpdate *Update
}

func (s *stubRepository) List(ctx context.Context) ([]Order, error) {
	return s.records, s.listErr
}

func (s *stubRepository) Save(ctx context.Context, input *Input) (int64, error) {
	s.savedInput = input
	return s.saveID, s.saveErr
}

func (s *stubRepository) Delete(ctx context.Context, id int64) (bool, error) {
	s.deletedID = id
	return s.found, nil
}

func (s *stubRepository) Update(ctx context.Context, update *Update) (bool, error) {
	s.lastUpdate = update
	return s.found, nil
}

func newOrderRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/orders", ListHandler(repo))
	router.POST("/api/orders", CreateHandler(repo))
	router.DELETE("/api/orders", DeleteHandler(repo))
	router.PATCH("/api/orders", UpdateHandler(repo))
	return router
}

func postJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	repo := &stubRepository{saveID: 42}
	router := newOrderRouter(repo)

	rec := postJSON(router, http.MethodPost, "/api/orders", `{
		"name": "  山田 太郎  ",
		"email": "taro@example.com",
		"phone": "090-0000-0000",
		"service": "catering",
		"deliveryMethod": "Pickup",
		"details": "10名分のオードブル"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["id"] != float64(42) {
		t.Fatalf("unexpected id: %v", payload["id"])
	}
	if repo.savedInput == nil {
		t.Fatal("expected Save to be called")
	}
	if repo.savedInput.Name != "山田 太郎" {
		t.Fatalf("name not trimmed: %q", repo.savedInput.Name)
	}
}

func TestCreateOrderRejectsInvalidEmail(t *testing.T) {
	repo := &stubRepository{}
	router := newOrderRouter(repo)

	rec := postJSON(router, http.MethodPost, "/api/orders", `{
		"name": "山田",
		"email": "not-an-email",
		"phone": "090-0000-0000",
		"service": "catering",
		"deliveryMethod": "Pickup",
		"details": "test"
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if repo.savedInput != nil {
		t.Fatal("Save must not be called for invalid input")
	}
}

func TestCreateOrderDeliveryRequiresAddress(t *testing.T) {
	repo := &stubRepository{}
	router := newOrderRouter(repo)

	rec := postJSON(router, http.MethodPost, "/api/orders", `{
		"name": "山田",
		"email": "taro@example.com",
		"phone": "090-0000-0000",
		"service": "catering",
		"deliveryMethod": "Delivery",
		"details": "test"
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = postJSON(router, http.MethodPost, "/api/orders", `{
		"name": "山田",
		"email": "taro@example.com",
		"phone": "090-0000-0000",
		"service": "catering",
		"deliveryMethod": "Delivery",
		"address": "東京都千代田区1-1",
		"details": "test"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status with address = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestListOrders(t *testing.T) {
	repo := &stubRepository{records: []Order{{ID: 1, Name: "山田"}, {ID: 2, Name: "田中"}}}
	router := newOrderRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []Order
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records length = %d, want 2", len(records))
	}
}

func TestListOrdersInternalError(t *testing.T) {
	repo := &stubRepository{listErr: errors.New("db is down")}
	router := newOrderRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestDeleteOrder(t *testing.T) {
	repo := &stubRepository{found: true}
	router := newOrderRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders?id=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if repo.deletedID != 7 {
		t.Fatalf("deleted id = %d, want 7", repo.deletedID)
	}
}

func TestDeleteOrderInvalidID(t *testing.T) {
	router := newOrderRouter(&stubRepository{})

	for _, query := range []string{"", "?id=abc", "?id=0", "?id=-1"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/orders"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q status = %d, want 400", query, rec.Code)
		}
	}
}

func TestDeleteOrderNotFound(t *testing.T) {
	router := newOrderRouter(&stubRepository{found: false})

	req := httptest.NewRequest(http.MethodDelete, "/api/orders?id=999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["code"] != "ORDER_NOT_FOUND" {
		t.Fatalf("unexpected code: %s", payload["code"])
	}
}

func TestUpdateOrder(t *testing.T) {
	repo := &stubRepository{found: true}
	router := newOrderRouter(repo)

	rec := postJSON(router, http.MethodPatch, "/api/orders", `{"id": 3, "status": "completed", "adminNotes": "受け渡し済み"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if repo.lastUpdate == nil || repo.lastUpdate.ID != 3 {
		t.Fatalf("unexpected update: %#v", repo.lastUpdate)
	}
	if repo.lastUpdate.Status == nil || *repo.lastUpdate.Status != StatusCompleted {
		t.Fatalf("unexpected status: %v", repo.lastUpdate.Status)
	}
}

func TestUpdateOrderRequiresField(t *testing.T) {
	router := newOrderRouter(&stubRepository{found: true})

	rec := postJSON(router, http.MethodPatch, "/api/orders", `{"id": 3}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateOrderRejectsUnknownStatus(t *testing.T) {
	router := newOrderRouter(&stubRepository{found: true})

	rec := postJSON(router, http.MethodPatch, "/api/orders", `{"id": 3, "status": "shipped"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusInProgress, StatusReady, StatusCompleted, StatusCanceled} {
		if !ValidStatus(s) {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if ValidStatus("shipped") {
		t.Fatal("unknown status must be invalid")
	}
}
