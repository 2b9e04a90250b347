// Package objstore provides the S3-compatible object client used for media
// uploads and the file-serving proxy.
package objstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

var tracer = otel.Tracer("inkwell/storage/objstore")

// deleteConcurrency bounds parallel per-object deletes in a batch.
const deleteConcurrency = 8

// Client wraps the S3 API for single and batch object operations.
type Client struct {
	client *s3.Client
	bucket string
}

// Object describes a stored object, as returned by List.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// NewClient creates an S3 client against the configured endpoint. With
// explicit keys it uses static credentials (MinIO or AWS); otherwise the
// default credential chain applies.
func NewClient(cfg storage.Config) (*Client, error) {
	ctx := context.Background()

	var awsCfg aws.Config
	var err error
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKey,
				cfg.S3SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		if cfg.S3UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Client{
		client: client,
		bucket: cfg.S3Bucket,
	}, nil
}

// PutObject uploads an object.
func (c *Client) PutObject(ctx context.Context, key string, content io.Reader, contentType string) error {
	ctx, span := tracer.Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.bucket", c.bucket),
			attribute.String("s3.key", key),
			attribute.String("content.type", contentType),
		),
	)
	defer span.End()

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

// GetObject retrieves an object and its content type. A missing object
// returns storage.ErrNotFound.
func (c *Client) GetObject(ctx context.Context, key string) (io.ReadCloser, string, error) {
	ctx, span := tracer.Start(ctx, "S3.GetObject",
		trace.WithAttributes(
			attribute.String("s3.bucket", c.bucket),
			attribute.String("s3.key", key),
		),
	)
	defer span.End()

	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, "", storage.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object from s3")
		return nil, "", fmt.Errorf("failed to get object from s3: %w", err)
	}

	contentType := ""
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return result.Body, contentType, nil
}

// DeleteObject deletes one object.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// DeleteObjects deletes a batch with bounded concurrency. Per-object failures
// are logged and the batch continues; the names that failed are returned.
func (c *Client) DeleteObjects(ctx context.Context, logger *observability.Logger, keys []string) []string {
	ctx, span := tracer.Start(ctx, "S3.DeleteObjects",
		trace.WithAttributes(attribute.Int("s3.batch_size", len(keys))),
	)
	defer span.End()

	var (
		g      errgroup.Group
		failed = make(chan string, len(keys))
	)
	g.SetLimit(deleteConcurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := c.DeleteObject(ctx, key); err != nil {
				logger.WithError(err).WithField("object", key).Warn("failed to delete object, continuing batch")
				failed <- key
			}
			// Batch deletion is partial-failure tolerant; never abort
			// sibling deletes.
			return nil
		})
	}

	g.Wait()
	close(failed)

	var names []string
	for key := range failed {
		names = append(names, key)
	}
	span.SetAttributes(attribute.Int("s3.failed", len(names)))
	return names
}

// List returns objects under the prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			o := Object{}
			if obj.Key != nil {
				o.Key = *obj.Key
			}
			if obj.Size != nil {
				o.Size = *obj.Size
			}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			objects = append(objects, o)
		}
	}
	return objects, nil
}

// HealthCheck verifies bucket reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey")
}
