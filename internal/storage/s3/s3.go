package s3

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/5w1tchy/book-art/internal/config"
)

// UploadTTL is how long a presigned upload URL stays valid.
const UploadTTL = 15 * time.Minute

type S3Client struct {
	Client        *s3.Client
	Presigner     *s3.PresignClient
	Bucket        string
	PublicBaseURL string
}

// NewClient initializes an S3-compatible client (AWS, R2, MinIO) from config.
// Static credentials are used when both keys are set, the default chain otherwise.
func NewClient(ctx context.Context, c config.StorageConfig) (*S3Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	})

	return &S3Client{
		Client:        client,
		Presigner:     s3.NewPresignClient(client),
		Bucket:        c.Bucket,
		PublicBaseURL: strings.TrimRight(c.PublicBaseURL, "/"),
	}, nil
}

// PresignUpload creates a presigned PUT URL for a direct browser upload.
func (s *S3Client) PresignUpload(ctx context.Context, objectKey, contentType string) (string, error) {
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, nil
}

// PublicURL is where the object is served once uploaded.
func (s *S3Client) PublicURL(objectKey string) string {
	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + "/" + objectKey
	}
	return "https://" + s.Bucket + ".s3.amazonaws.com/" + objectKey
}

// ArtKey returns a fresh object key under art/ keeping the file's extension.
func ArtKey(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return "art/" + uuid.NewString() + ext
}
