package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/caravan/internal/inventory"
	"github.com/zulandar/caravan/internal/models"
)

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := inventory.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	tmpl := template.Must(template.New("index").Parse(indexTemplate))
	router.SetHTMLTemplate(tmpl)
	registerRoutes(router, db)
	return router, db
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %q, want ok status", w.Body.String())
	}
}

func TestAPIDatasets(t *testing.T) {
	router, db := testRouter(t)
	if err := inventory.RecordDataset(db, models.DatasetRecord{UUID: "u1", Path: "/data/one", Annex: true}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var recs []models.DatasetRecord
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].UUID != "u1" {
		t.Errorf("datasets = %+v, want the recorded dataset", recs)
	}
}

func TestAPISiblings(t *testing.T) {
	router, db := testRouter(t)
	if err := inventory.RecordDataset(db, models.DatasetRecord{UUID: "u1", Path: "/data/one"}); err != nil {
		t.Fatal(err)
	}
	if err := inventory.RecordSibling(db, models.SiblingRecord{DatasetUUID: "u1", Name: "github", URL: "https://x"}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/datasets/u1/siblings", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "https://x") {
		t.Errorf("body = %q, want the sibling URL", w.Body.String())
	}
}

func TestAPISiblings_UnknownDataset(t *testing.T) {
	router, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/datasets/nope/siblings", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestIndexHTML(t *testing.T) {
	router, db := testRouter(t)
	if err := inventory.RecordDataset(db, models.DatasetRecord{UUID: "u1", Path: "/data/one"}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/data/one") {
		t.Errorf("index page does not list the dataset: %q", w.Body.String())
	}
}
