package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"jamforge/catalog-api/model"
	"jamforge/catalog-api/storage"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	buildIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
	buildIDLength  = 16

	// How many archive entries are uploaded at once. Entries are
	// independent objects so order between them doesn't matter
	uploadConcurrency = 8
)

// Ingestor turns uploaded zip archives into builds. Every upload route
// goes through Ingest so the size ceiling and the entry point check
// always apply, in that order, before any storage write
type Ingestor struct {
	DB       *gorm.DB
	Store    storage.ObjectStore
	MaxBytes int64

	// Base used for the canonical build URL recorded on the game
	PublicURL string
}

func NewIngestor(db *gorm.DB, store storage.ObjectStore) *Ingestor {
	return &Ingestor{
		DB:       db,
		Store:    store,
		MaxBytes: viper.GetInt64("upload.max_build_size"),
		PublicURL: strings.TrimRight(
			viper.GetString("host.public_url"), "/"),
	}
}

// Ingest validates the archive, unpacks every file entry into storage
// under a fresh build prefix and, only once all of them made it,
// records the build and repoints the game at it. A failed entry fails
// the whole ingestion so the game never points at a half written build
func (i *Ingestor) Ingest(ctx context.Context, game *model.Game, archive []byte) (*model.Build, error) {
	build, err := i.unpack(ctx, game, archive)
	if err != nil {
		return nil, err
	}

	// The pointer update is the single serialization point. Two ingests
	// racing for the same game both materialize fully and the later
	// commit wins
	err = i.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(build).Error; err != nil {
			return err
		}

		return tx.
			Model(model.Game{}).
			Where("id = ?", game.ID).
			Updates(map[string]any{
				"current_build_id": build.ID,
				"build_url":        build.CanonicalURL,
				"updated_at":       build.CreatedAt,
			}).
			Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record build, %w", err)
	}

	return build, nil
}

// unpack runs the validation and storage half of an ingestion. Nothing
// is written unless the archive passed every check
func (i *Ingestor) unpack(ctx context.Context, game *model.Game, archive []byte) (*model.Build, error) {
	if int64(len(archive)) > i.MaxBytes {
		return nil, ErrBuildTooLarge
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w, %v", ErrInvalidArchive, err)
	}

	entries := make([]*zip.File, 0, len(zr.File))
	hasEntryPoint := false

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := path.Clean(f.Name)
		if name == ".." || strings.HasPrefix(name, "../") || path.IsAbs(name) {
			return nil, fmt.Errorf("%w, entry %q escapes the archive root", ErrInvalidArchive, f.Name)
		}

		if name == "index.html" {
			hasEntryPoint = true
		}

		entries = append(entries, f)
	}

	if !hasEntryPoint {
		return nil, ErrMissingEntryPoint
	}

	buildID, err := gonanoid.Generate(buildIDCharset, buildIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate build ID, %w", err)
	}

	prefix := "builds/" + buildID
	now := time.Now()

	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for _, f := range entries {
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("%w, failed to open entry %q: %v", ErrInvalidArchive, f.Name, err)
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("%w, failed to read entry %q: %v", ErrInvalidArchive, f.Name, err)
			}

			name := path.Clean(f.Name)
			ct := mime.TypeByExtension(path.Ext(name))
			if ct == "" {
				ct = "application/octet-stream"
			}

			err = i.Store.Put(gctx, prefix+"/"+name, bytes.NewReader(data), int64(len(data)), ct)
			if err != nil {
				return err
			}

			total.Add(int64(len(data)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Build ingestion failed",
			zap.String("gameID", game.ID),
			zap.String("buildID", buildID),
			zap.Error(err))
		return nil, err
	}

	build := &model.Build{
		ID:               buildID,
		GameID:           game.ID,
		StorageKeyPrefix: prefix,
		CanonicalURL:     fmt.Sprintf("%s/games/%s/build/index.html", i.PublicURL, game.ID),
		SizeBytes:        total.Load(),
		CreatedAt:        now.Unix(),
	}

	zap.L().Info("Build ingested",
		zap.String("gameID", game.ID),
		zap.String("buildID", buildID),
		zap.Int("entries", len(entries)),
		zap.Int64("bytes", total.Load()))

	return build, nil
}
