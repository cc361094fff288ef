package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"jamforge/catalog-api/model"
	"jamforge/catalog-api/storage"

	"go.uber.org/zap"
)

// Content for a build never changes under its build-id path, so the
// browser may cache aggressively
const assetCacheControl = "public, max-age=3600"

// AssetRequest is the per request context of one proxy call. It only
// lives for the duration of that call
type AssetRequest struct {
	Game     *model.Game
	FilePath string
	Viewer   *Viewer

	// Scheme and Host of the inbound request, used for the absolute
	// proxy URLs embedded into rewritten HTML
	Scheme string
	Host   string

	// Token is set when the caller authenticated through the token
	// query parameter. It gets carried onto rewritten asset URLs so a
	// sandboxed iframe stays authorized without sending headers
	Token string

	// SignEndpoint is the public signing endpoint chosen by the host
	// policy for this request
	SignEndpoint string
}

// Asset is the proxied response: raw bytes, never a storage key
type Asset struct {
	Body         []byte
	ContentType  string
	CacheControl string
}

// Proxy serves build files by resolving their storage key, fetching the
// bytes through a signed URL and patching the root document so relative
// references route back through the proxy
type Proxy struct {
	Store   storage.ObjectStore
	Members MembershipLookup
	Client  *http.Client
}

func NewProxy(store storage.ObjectStore, members MembershipLookup) *Proxy {
	return &Proxy{
		Store:   store,
		Members: members,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *Proxy) Serve(ctx context.Context, req *AssetRequest) (*Asset, error) {
	ok, err := CanRead(ctx, req.Game, req.Viewer, p.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to check visibility, %w", err)
	}
	if !ok {
		return nil, ErrNotAvailable
	}

	if req.Game.CurrentBuildID == "" {
		return nil, ErrNoBuild
	}

	filePath := path.Clean(strings.TrimLeft(req.FilePath, "/"))
	if filePath == "." || filePath == ".." || strings.HasPrefix(filePath, "../") {
		return nil, ErrAssetNotFound
	}

	key := "builds/" + req.Game.CurrentBuildID + "/" + filePath

	signed, err := p.Store.Sign(ctx, key, storage.DefaultExpiry, req.SignEndpoint)
	if err != nil {
		return nil, err
	}

	body, contentType, err := p.fetch(ctx, signed)
	if err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filePath))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if filePath == "index.html" && strings.Contains(contentType, "text/html") {
		proxyBase := fmt.Sprintf("%s://%s/games/%s/build", req.Scheme, req.Host, req.Game.ID)

		tokenSuffix := ""
		if req.Token != "" {
			tokenSuffix = "?token=" + url.QueryEscape(req.Token)
		}

		body = RewriteRelativeReferences(body, proxyBase, tokenSuffix)
	}

	return &Asset{
		Body:         body,
		ContentType:  contentType,
		CacheControl: assetCacheControl,
	}, nil
}

func (p *Proxy) fetch(ctx context.Context, signedURL string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w, %v", storage.ErrUnavailable, err)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		// Timeouts land here too
		return nil, "", fmt.Errorf("%w, %v", storage.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		// The store answers 403 for missing keys when list permission
		// is withheld, treat it the same as absent
		return nil, "", ErrAssetNotFound
	default:
		zap.L().Error("Unexpected upstream status from object store",
			zap.Int("status", resp.StatusCode))
		return nil, "", fmt.Errorf("%w, upstream status %d", storage.ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w, %v", storage.ErrUnavailable, err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
