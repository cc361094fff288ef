// Package storage wraps the S3-compatible object store behind a small
// interface so every component shares one configured client
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

// Objects above this size are uploaded in parts
const multipartLimit = 100 << 20

var (
	// ErrObjectNotFound means the requested key doesn't exist in the bucket
	ErrObjectNotFound = errors.New("object not found")
	// ErrUnavailable covers transient storage failures. Retrying is left
	// to the caller
	ErrUnavailable = errors.New("object storage unavailable")
)

// Object is a fetched storage object ready for streaming
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ObjectStore is the single storage handle injected into every component
// that needs to touch the bucket
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Sign(ctx context.Context, key string, expires time.Duration, endpoint string) (string, error)
}

type S3Store struct {
	C      *s3.Client
	U      *manager.Uploader
	Bucket *string
	signer *Signer
}

// New builds the store from viper config and probes the bucket so a bad
// endpoint or credentials fail at startup instead of on the first upload
func New() (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("storage.access_key_id"),
			viper.GetString("storage.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("storage.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(viper.GetString("storage.endpoint"))
		o.Region = viper.GetString("storage.region")
		o.UsePathStyle = viper.GetBool("storage.path_style")
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Store{
		C: client,
		U: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 5 << 20
		}),
		Bucket: bucket,
		signer: NewSigner(),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	var err error

	if size > multipartLimit {
		_, err = s.U.Upload(ctx, &s3.PutObjectInput{
			Bucket:        s.Bucket,
			Key:           aws.String(key),
			Body:          body,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(contentType),
		})
	} else {
		_, err = s.C.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        s.Bucket,
			Key:           aws.String(key),
			Body:          body,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(contentType),
		})
	}
	if err != nil {
		return fmt.Errorf("%w, failed to put %q: %v", ErrUnavailable, key, err)
	}

	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w, %s", ErrObjectNotFound, key)
		}

		return nil, fmt.Errorf("%w, failed to get %q: %v", ErrUnavailable, key, err)
	}

	obj := &Object{Body: out.Body}
	if out.ContentType != nil {
		obj.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		obj.ContentLength = *out.ContentLength
	}

	return obj, nil
}

func (s *S3Store) Sign(ctx context.Context, key string, expires time.Duration, endpoint string) (string, error) {
	return s.signer.Sign(ctx, key, expires, endpoint)
}
