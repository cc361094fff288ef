package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"jamforge/catalog-api/model"
	"jamforge/catalog-api/storage"
)

// fakeStore records every Put so tests can assert what hit storage and,
// more importantly, what never did
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject

	signBase string
	signErr  error
	putErr   error
}

type fakeObject struct {
	data        []byte
	contentType string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]fakeObject{}}
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.objects[key] = fakeObject{data: data, contentType: contentType}
	f.mu.Unlock()

	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (*storage.Object, error) {
	f.mu.Lock()
	obj, ok := f.objects[key]
	f.mu.Unlock()

	if !ok {
		return nil, storage.ErrObjectNotFound
	}

	return &storage.Object{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   obj.contentType,
		ContentLength: int64(len(obj.data)),
	}, nil
}

func (f *fakeStore) Sign(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}

	return f.signBase + "/" + key, nil
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// buildZip assembles an in-memory archive from name/content pairs
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %q: %v", name, err)
		}

		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %q: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	return buf.Bytes()
}

func testIngestor(store *fakeStore) *Ingestor {
	return &Ingestor{
		Store:     store,
		MaxBytes:  1 << 20,
		PublicURL: "https://jam.example.com",
	}
}

func TestUnpackRejections(t *testing.T) {
	tests := []struct {
		name    string
		archive func(t *testing.T) []byte
		wantErr error
	}{
		{
			name:    "not a zip",
			archive: func(t *testing.T) []byte { return []byte("definitely not a zip") },
			wantErr: ErrInvalidArchive,
		},
		{
			name: "no root index.html",
			archive: func(t *testing.T) []byte {
				return buildZip(t, map[string]string{
					"readme.txt":     "hi",
					"web/index.html": "<html></html>",
				})
			},
			wantErr: ErrMissingEntryPoint,
		},
		{
			name: "entry escapes the archive root",
			archive: func(t *testing.T) []byte {
				return buildZip(t, map[string]string{
					"index.html":  "<html></html>",
					"../evil.txt": "nope",
				})
			},
			wantErr: ErrInvalidArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			ing := testIngestor(store)

			_, err := ing.unpack(context.Background(), &model.Game{ID: "g1"}, tt.archive(t))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("unpack() error = %v, want %v", err, tt.wantErr)
			}

			// A rejected archive must leave storage untouched
			if n := store.len(); n != 0 {
				t.Errorf("store holds %d objects after rejection, want 0", n)
			}
		})
	}
}

func TestUnpackSizeCeiling(t *testing.T) {
	store := newFakeStore()
	ing := testIngestor(store)
	ing.MaxBytes = 16

	archive := buildZip(t, map[string]string{"index.html": "<html></html>"})

	_, err := ing.unpack(context.Background(), &model.Game{ID: "g1"}, archive)
	if !errors.Is(err, ErrBuildTooLarge) {
		t.Fatalf("unpack() error = %v, want %v", err, ErrBuildTooLarge)
	}

	if n := store.len(); n != 0 {
		t.Errorf("store holds %d objects after rejection, want 0", n)
	}
}

func TestUnpack(t *testing.T) {
	store := newFakeStore()
	ing := testIngestor(store)

	entries := map[string]string{
		"index.html":     "<html><script src=\"assets/game.js\"></script></html>",
		"assets/game.js": "console.log(1)",
		"assets/blob":    "\x00\x01\x02",
	}

	build, err := ing.unpack(context.Background(), &model.Game{ID: "g1"}, buildZip(t, entries))
	if err != nil {
		t.Fatalf("unpack() error = %v", err)
	}

	if build.GameID != "g1" {
		t.Errorf("build.GameID = %q, want %q", build.GameID, "g1")
	}

	if !strings.HasPrefix(build.StorageKeyPrefix, "builds/") {
		t.Errorf("build.StorageKeyPrefix = %q, want builds/ prefix", build.StorageKeyPrefix)
	}

	want := "https://jam.example.com/games/g1/build/index.html"
	if build.CanonicalURL != want {
		t.Errorf("build.CanonicalURL = %q, want %q", build.CanonicalURL, want)
	}

	var total int64
	for name, content := range entries {
		obj, ok := store.objects[build.StorageKeyPrefix+"/"+name]
		if !ok {
			t.Fatalf("entry %q never reached storage", name)
		}

		if string(obj.data) != content {
			t.Errorf("entry %q = %q, want %q", name, obj.data, content)
		}

		total += int64(len(content))
	}

	if build.SizeBytes != total {
		t.Errorf("build.SizeBytes = %d, want %d", build.SizeBytes, total)
	}

	if ct := store.objects[build.StorageKeyPrefix+"/index.html"].contentType; !strings.Contains(ct, "text/html") {
		t.Errorf("index.html content type = %q, want text/html", ct)
	}

	if ct := store.objects[build.StorageKeyPrefix+"/assets/blob"].contentType; ct != "application/octet-stream" {
		t.Errorf("extensionless entry content type = %q, want application/octet-stream", ct)
	}
}

func TestUnpackStorageFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = storage.ErrUnavailable

	ing := testIngestor(store)
	archive := buildZip(t, map[string]string{"index.html": "<html></html>"})

	_, err := ing.unpack(context.Background(), &model.Game{ID: "g1"}, archive)
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("unpack() error = %v, want %v", err, storage.ErrUnavailable)
	}
}

func TestUnpackSkipsDirectories(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if _, err := zw.Create("assets/"); err != nil {
		t.Fatalf("failed to create dir entry: %v", err)
	}

	w, err := zw.Create("index.html")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("<html></html>")); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	store := newFakeStore()
	ing := testIngestor(store)

	build, err := ing.unpack(context.Background(), &model.Game{ID: "g1"}, buf.Bytes())
	if err != nil {
		t.Fatalf("unpack() error = %v", err)
	}

	if n := store.len(); n != 1 {
		t.Errorf("store holds %d objects, want 1", n)
	}

	if _, ok := store.objects[build.StorageKeyPrefix+"/index.html"]; !ok {
		t.Error("index.html never reached storage")
	}
}
