package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/rentdesk/rentdesk/internal/config"
)

// maxDeleteKeys is the DeleteObjects per-request limit.
const maxDeleteKeys = 1000

// S3BlobStore implements BlobStore on S3-compatible storage
// (AWS S3, MinIO, Cloudflare R2, ...). Objects live at
// "<resource type>/<public id>".
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// S3Config holds configuration for S3 storage
type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string // Optional: for S3-compatible services
	PublicBaseURL string // Optional: overrides the URL prefix returned from uploads
	UsePathStyle  bool
}

// New creates the blob store from app config.
func New(ctx context.Context, c *cfg.Config) (*S3BlobStore, error) {
	slog.Info("initializing S3 blob storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewS3BlobStore(ctx, S3Config{
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Endpoint:      c.S3Endpoint,
		PublicBaseURL: c.S3PublicBaseURL,
		UsePathStyle:  c.S3PathStyle(),
	})
}

func NewS3BlobStore(ctx context.Context, sc S3Config) (*S3BlobStore, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(sc.Region))

	if sc.AccessKey != "" && sc.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
		}
		o.UsePathStyle = sc.UsePathStyle
	})

	publicURL := sc.PublicBaseURL
	switch {
	case publicURL != "":
	case sc.Endpoint != "":
		publicURL = strings.TrimSuffix(sc.Endpoint, "/") + "/" + sc.Bucket
	default:
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", sc.Bucket, sc.Region)
	}

	store := &S3BlobStore{
		client:    client,
		bucket:    sc.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return store, nil
}

// ensureBucket checks if bucket exists, creates it if not
func (s *S3BlobStore) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	slog.Info("created S3 bucket", "bucket", s.bucket)
	return nil
}

func objectKey(rt ResourceType, publicID string) string {
	return string(rt) + "/" + publicID
}

func (s *S3BlobStore) Upload(ctx context.Context, body io.Reader, folderPath, publicID, contentType string) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	rt := ClassifyMime(contentType)
	fullID := path.Join(folderPath, publicID)
	key := objectKey(rt, fullID)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		SecureURL:    s.publicURL + "/" + key,
		PublicID:     fullID,
		ResourceType: rt,
	}, nil
}

// DeleteBatch removes objects with DeleteObjects, chunked to the request
// limit. S3 has no CDN cache to purge, so invalidate is ignored.
func (s *S3BlobStore) DeleteBatch(ctx context.Context, publicIDs []string, rt ResourceType, invalidate bool) (map[string]string, error) {
	result := make(map[string]string, len(publicIDs))
	if len(publicIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	byKey := make(map[string]string, len(publicIDs))
	for start := 0; start < len(publicIDs); start += maxDeleteKeys {
		end := min(start+maxDeleteKeys, len(publicIDs))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, id := range publicIDs[start:end] {
			key := objectKey(rt, id)
			byKey[key] = id
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return result, fmt.Errorf("failed to delete from S3: %w", err)
		}

		for _, d := range out.Deleted {
			result[byKey[aws.ToString(d.Key)]] = StatusDeleted
		}
		for _, e := range out.Errors {
			result[byKey[aws.ToString(e.Key)]] = fmt.Sprintf("error: %s %s", aws.ToString(e.Code), aws.ToString(e.Message))
		}
	}

	for _, id := range publicIDs {
		if _, ok := result[id]; !ok {
			result[id] = StatusNotFound
		}
	}

	return result, nil
}
