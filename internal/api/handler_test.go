package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/core/resilience"
	"github.com/vietddude/dbguard/internal/core/scouting"
	"github.com/vietddude/dbguard/internal/infra/storage/memory"
)

func newTestHandler(t *testing.T) (*Handler, *memory.MemoryStorage) {
	t.Helper()
	store := memory.NewMemoryStorage()
	exec := resilience.New(resilience.DefaultPolicy(), dberr.Base,
		resilience.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		resilience.WithSleeper(func(ctx context.Context, d time.Duration) error { return nil }),
	)
	svc := scouting.NewService(memory.NewPlayerRepo(store), memory.NewScoutRepo(store), memory.NewSnapshotStore(), exec)
	return NewHandler(svc), store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestPlayerRoutes(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodPost, "/players", `{"name":"Pedri","position":"CM","rating":8.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var p domain.Player
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec := do(h, http.MethodGet, "/players/"+p.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/players?limit=10", "")
	var list listResponse[*domain.Player]
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Stale {
		t.Errorf("unexpected list: %+v", list)
	}

	if rec := do(h, http.MethodDelete, "/players/"+p.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/players/"+p.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	h, store := newTestHandler(t)

	if rec := do(h, http.MethodPost, "/players", `{"name":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/players", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}

	body := `{"id":"fixed","name":"Gavi"}`
	do(h, http.MethodPost, "/players", body)
	if rec := do(h, http.MethodPost, "/players", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	store.SetFault(func(op string) error {
		return &dberr.UnknownRequestError{Message: "connection reset", Err: errors.New("reset")}
	})
	rec := do(h, http.MethodGet, "/players/fixed", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("transient failure status = %d, want 503", rec.Code)
	}
	var eb errorBody
	_ = json.NewDecoder(rec.Body).Decode(&eb)
	if eb.Code != dberr.CodeUnknownRequest || !eb.Retryable {
		t.Errorf("unexpected error body: %+v", eb)
	}
}

func TestListPlayersServesSnapshotWhenStoreDown(t *testing.T) {
	h, store := newTestHandler(t)
	do(h, http.MethodPost, "/players", `{"name":"Yamal"}`)
	do(h, http.MethodGet, "/players", "")

	store.SetFault(func(op string) error {
		return &dberr.EnginePanicError{Message: "engine down"}
	})
	rec := do(h, http.MethodGet, "/players", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var list listResponse[*domain.Player]
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if !list.Stale || len(list.Items) != 1 {
		t.Errorf("expected stale snapshot with one player, got %+v", list)
	}
}

func TestScoutReportRoutes(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodPost, "/players", `{"name":"Fermin"}`)
	var p domain.Player
	_ = json.NewDecoder(rec.Body).Decode(&p)

	rec = do(h, http.MethodPost, "/scouts", `{"name":"Deco","level":"senior"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create scout status = %d", rec.Code)
	}
	var sc domain.Scout
	_ = json.NewDecoder(rec.Body).Decode(&sc)

	rec = do(h, http.MethodPost, "/scouts/"+sc.ID+"/reports", `{"player_id":"`+p.ID+`","rating":7.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("file report status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/scouts/"+sc.ID+"/reports", "")
	var list listResponse[*domain.Report]
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Items) != 1 || list.Items[0].PlayerID != p.ID {
		t.Errorf("unexpected reports: %+v", list)
	}

	rec = do(h, http.MethodGet, "/scouts/"+sc.ID, "")
	_ = json.NewDecoder(rec.Body).Decode(&sc)
	if sc.TotalReports != 1 {
		t.Errorf("TotalReports = %d, want 1", sc.TotalReports)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodGet, "/players", "")
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/players", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  *dberr.DatabaseError
		want int
	}{
		{&dberr.DatabaseError{Code: dberr.CodeNotFound}, http.StatusNotFound},
		{&dberr.DatabaseError{Code: dberr.CodeUniqueViolation}, http.StatusConflict},
		{&dberr.DatabaseError{Code: dberr.CodeValidation}, http.StatusBadRequest},
		{&dberr.DatabaseError{Code: dberr.CodeTimeout, IsRetryable: true}, http.StatusServiceUnavailable},
		{&dberr.DatabaseError{Code: dberr.CodeEnginePanic}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}
