package reports

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/metrics"
)

// S3Config points at an S3-compatible bucket.
type S3Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	SignedURLTTL time.Duration
}

// S3Delivery uploads finished reports and hands out signed download URLs.
type S3Delivery struct {
	client       *s3.Client
	bucket       string
	signedURLTTL time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// Export describes an uploaded report.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewS3Delivery builds a path-style S3 client for cfg.Endpoint.
func NewS3Delivery(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Delivery, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Delivery{
		client:       client,
		bucket:       cfg.Bucket,
		signedURLTTL: cfg.SignedURLTTL,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// ObjectKey is where a report of kind named name is stored.
func ObjectKey(kind Kind, id uuid.UUID, name string) string {
	return fmt.Sprintf("reports/%s/%s/%s", kind, id, name)
}

// Checksum is the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Upload stores data and returns a presigned GET URL for it.
func (d *S3Delivery) Upload(ctx context.Context, kind Kind, name, contentType string, data []byte) (Export, error) {
	key := ObjectKey(kind, uuid.New(), name)
	checksum := Checksum(data)

	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"checksum": checksum,
			"kind":     string(kind),
		},
	})
	if err != nil {
		metrics.RecordReportExport(string(kind), "s3", "error")
		return Export{}, fmt.Errorf("upload %s: %w", key, err)
	}

	url, err := d.presign(ctx, key)
	if err != nil {
		metrics.RecordReportExport(string(kind), "s3", "error")
		return Export{}, err
	}
	metrics.RecordReportExport(string(kind), "s3", "success")

	d.logger.Info("uploaded report",
		zap.String("bucket", d.bucket),
		zap.String("key", key),
		zap.String("checksum", checksum),
		zap.Int("size", len(data)),
	)

	return Export{
		Key:       key,
		URL:       url,
		Checksum:  checksum,
		Size:      int64(len(data)),
		ExpiresAt: d.now().Add(d.signedURLTTL).UTC(),
	}, nil
}

func (d *S3Delivery) presign(ctx context.Context, key string) (string, error) {
	presigner := s3.NewPresignClient(d.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = d.signedURLTTL
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
