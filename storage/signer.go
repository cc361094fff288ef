package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jellydator/ttlcache/v2"
	"github.com/spf13/viper"
)

// ErrSigningFailed means the presign primitive itself errored. Callers
// must treat this as fatal for the request. Handing out the bare storage
// key instead of a signed URL just moves the failure into the browser
// where nobody can see what went wrong
var ErrSigningFailed = errors.New("failed to sign storage URL")

// DefaultExpiry is used whenever a caller doesn't override expiresIn
const DefaultExpiry = time.Hour

// Signer issues presigned GET URLs. A presigned URL is only valid for
// the exact host it was signed with, so one presign client exists per
// endpoint. Clients repeat within bursts of asset requests which is why
// they're kept in a short lived cache instead of rebuilt every call
type Signer struct {
	region    string
	bucket    string
	pathStyle bool
	creds     aws.CredentialsProvider

	contexts *ttlcache.Cache
}

func NewSigner() *Signer {
	cache := ttlcache.NewCache()
	cache.SetTTL(5 * time.Minute)
	cache.SkipTTLExtensionOnHit(true)

	return &Signer{
		region:    viper.GetString("storage.region"),
		bucket:    viper.GetString("storage.bucket"),
		pathStyle: viper.GetBool("storage.path_style"),
		creds: credentials.NewStaticCredentialsProvider(
			viper.GetString("storage.access_key_id"),
			viper.GetString("storage.secret_access_key"),
			"",
		),
		contexts: cache,
	}
}

// Sign returns a time limited GET URL for key, valid when dereferenced
// through endpoint. An empty expires falls back to DefaultExpiry
func (s *Signer) Sign(ctx context.Context, key string, expires time.Duration, endpoint string) (string, error) {
	if expires <= 0 {
		expires = DefaultExpiry
	}

	if endpoint == "" {
		return "", fmt.Errorf("%w, no signing endpoint", ErrSigningFailed)
	}

	pc := s.signingContext(endpoint)

	req, err := pc.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("%w, %v", ErrSigningFailed, err)
	}

	return req.URL, nil
}

// signingContext returns a presign client bound to endpoint, reusing a
// cached one when the same host repeats
func (s *Signer) signingContext(endpoint string) *s3.PresignClient {
	endpoint = strings.TrimRight(endpoint, "/")

	if v, err := s.contexts.Get(endpoint); err == nil {
		return v.(*s3.PresignClient)
	}

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       s.region,
		Credentials:  s.creds,
		UsePathStyle: s.pathStyle,
	})

	pc := s3.NewPresignClient(client)
	s.contexts.Set(endpoint, pc)

	return pc
}
