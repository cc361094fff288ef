package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jamforge/catalog-api/model"
	"jamforge/catalog-api/storage"
)

func testUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/builds/b1/index.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<script src="game.js"></script><img src="https://cdn.example.com/pic.png">`))
		case "/builds/b1/game.js":
			w.Header().Set("Content-Type", "text/javascript")
			w.Write([]byte("console.log(1)"))
		case "/builds/b1/data.bin":
			w.Write([]byte{0x00, 0x01})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testProxy(t *testing.T) (*Proxy, *fakeStore) {
	t.Helper()

	upstream := testUpstream(t)

	store := newFakeStore()
	store.signBase = upstream.URL

	return &Proxy{
		Store:   store,
		Members: &fakeMembers{members: map[string]bool{"t1/alice": true}},
		Client:  upstream.Client(),
	}, store
}

func publishedGame() *model.Game {
	return &model.Game{
		ID:             "g1",
		TeamID:         "t1",
		Status:         model.StatusPublished,
		CurrentBuildID: "b1",
	}
}

func TestProxyServe(t *testing.T) {
	p, _ := testProxy(t)

	asset, err := p.Serve(context.Background(), &AssetRequest{
		Game:         publishedGame(),
		FilePath:     "game.js",
		Scheme:       "https",
		Host:         "jam.example.com",
		SignEndpoint: "https://s3.example.com",
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if string(asset.Body) != "console.log(1)" {
		t.Errorf("asset.Body = %q, want %q", asset.Body, "console.log(1)")
	}

	if asset.ContentType != "text/javascript" {
		t.Errorf("asset.ContentType = %q, want %q", asset.ContentType, "text/javascript")
	}

	if asset.CacheControl != "public, max-age=3600" {
		t.Errorf("asset.CacheControl = %q", asset.CacheControl)
	}
}

func TestProxyServeRewritesRootDocument(t *testing.T) {
	p, _ := testProxy(t)

	asset, err := p.Serve(context.Background(), &AssetRequest{
		Game:         publishedGame(),
		FilePath:     "index.html",
		Scheme:       "https",
		Host:         "jam.example.com",
		Token:        "tok",
		SignEndpoint: "https://s3.example.com",
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	want := `<script src="https://jam.example.com/games/g1/build/game.js?token=tok"></script>` +
		`<img src="https://cdn.example.com/pic.png">`
	if string(asset.Body) != want {
		t.Errorf("asset.Body = %q, want %q", asset.Body, want)
	}
}

func TestProxyServeLeavesOtherFilesAlone(t *testing.T) {
	p, _ := testProxy(t)

	// Only the root document is HTML-rewritten, binary assets pass
	// through byte for byte
	asset, err := p.Serve(context.Background(), &AssetRequest{
		Game:         publishedGame(),
		FilePath:     "data.bin",
		Scheme:       "https",
		Host:         "jam.example.com",
		SignEndpoint: "https://s3.example.com",
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if string(asset.Body) != "\x00\x01" {
		t.Errorf("asset.Body = %v, want raw bytes", asset.Body)
	}

	if asset.ContentType != "application/octet-stream" {
		t.Errorf("asset.ContentType = %q, want application/octet-stream", asset.ContentType)
	}
}

func TestProxyServeDenials(t *testing.T) {
	editing := publishedGame()
	editing.Status = model.StatusEditing

	noBuild := publishedGame()
	noBuild.CurrentBuildID = ""

	tests := []struct {
		name    string
		game    *model.Game
		viewer  *Viewer
		file    string
		wantErr error
	}{
		{"private game anonymous", editing, nil, "index.html", ErrNotAvailable},
		{"private game stranger", editing, &Viewer{UserID: "bob"}, "index.html", ErrNotAvailable},
		{"no build yet", noBuild, nil, "index.html", ErrNoBuild},
		{"missing file", publishedGame(), nil, "nope.js", ErrAssetNotFound},
		{"traversal path", publishedGame(), nil, "../secret", ErrAssetNotFound},
		{"empty path", publishedGame(), nil, "", ErrAssetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := testProxy(t)

			_, err := p.Serve(context.Background(), &AssetRequest{
				Game:         tt.game,
				FilePath:     tt.file,
				Viewer:       tt.viewer,
				Scheme:       "https",
				Host:         "jam.example.com",
				SignEndpoint: "https://s3.example.com",
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Serve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProxyServePrivateGameForMember(t *testing.T) {
	p, _ := testProxy(t)

	game := publishedGame()
	game.Status = model.StatusEditing

	asset, err := p.Serve(context.Background(), &AssetRequest{
		Game:         game,
		FilePath:     "game.js",
		Viewer:       &Viewer{UserID: "alice"},
		Scheme:       "https",
		Host:         "jam.example.com",
		SignEndpoint: "https://s3.example.com",
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if string(asset.Body) != "console.log(1)" {
		t.Errorf("asset.Body = %q, want %q", asset.Body, "console.log(1)")
	}
}

func TestProxyServeSigningFailure(t *testing.T) {
	p, store := testProxy(t)
	store.signErr = storage.ErrSigningFailed

	_, err := p.Serve(context.Background(), &AssetRequest{
		Game:         publishedGame(),
		FilePath:     "index.html",
		Scheme:       "https",
		Host:         "jam.example.com",
		SignEndpoint: "https://s3.example.com",
	})
	if !errors.Is(err, storage.ErrSigningFailed) {
		t.Errorf("Serve() error = %v, want %v", err, storage.ErrSigningFailed)
	}
}

func TestProxyServeUpstreamDown(t *testing.T) {
	store := newFakeStore()
	// Nothing listens here
	store.signBase = "http://127.0.0.1:1"

	p := &Proxy{
		Store:   store,
		Members: &fakeMembers{},
		Client:  http.DefaultClient,
	}

	_, err := p.Serve(context.Background(), &AssetRequest{
		Game:         publishedGame(),
		FilePath:     "index.html",
		Scheme:       "https",
		Host:         "jam.example.com",
		SignEndpoint: "https://s3.example.com",
	})
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("Serve() error = %v, want %v", err, storage.ErrUnavailable)
	}
}
