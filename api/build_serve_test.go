package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/model"
	"jamforge/catalog-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testAPI(t *testing.T) (*API, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	err = db.AutoMigrate(model.User{}, model.TeamMember{}, model.Game{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	members := &service.TeamMembership{DB: db}
	a := &API{
		DB:      db,
		Members: members,
		Proxy:   service.NewProxy(nil, members),
	}

	router := gin.New()
	router.Use(middleware.NewRequestIDMiddleware())
	router.GET("/games/:gameID/build/*filePath", middleware.OptionalAuth(db, true), a.BuildServe)

	return a, router
}

// An anonymous caller probing the proxy route must get the same answer
// for a private game, a game without a build and a game that doesn't
// exist at all
func TestBuildServeDenialsAreIndistinguishable(t *testing.T) {
	a, router := testAPI(t)

	games := []model.Game{
		{ID: "priv", TeamID: "t1", Title: "secret", Status: model.StatusEditing, CurrentBuildID: "b1"},
		{ID: "empty", TeamID: "t1", Title: "unshipped", Status: model.StatusPublished},
	}
	for _, g := range games {
		if err := a.DB.Create(&g).Error; err != nil {
			t.Fatalf("failed to seed game %q: %v", g.ID, err)
		}
	}

	get := func(path string) (int, string) {
		t.Helper()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("unparseable response body %q: %v", w.Body.String(), err)
		}

		return w.Code, body.Error
	}

	missCode, missErr := get("/games/nope/build/index.html")
	if missCode != http.StatusNotFound {
		t.Fatalf("missing game status = %d, want %d", missCode, http.StatusNotFound)
	}

	for _, id := range []string{"priv", "empty"} {
		code, errMsg := get("/games/" + id + "/build/index.html")

		if code != missCode {
			t.Errorf("game %q denial status = %d, missing game got %d", id, code, missCode)
		}

		if errMsg != missErr {
			t.Errorf("game %q denial error = %q, missing game got %q", id, errMsg, missErr)
		}
	}
}
