package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// FolderReports is the S3 prefix for archived run reports.
const FolderReports = "reports"

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ReportsBucket   string
}

// S3 archives run reports to a bucket.
type S3 struct {
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReportsBucket == "" {
		return nil, fmt.Errorf("reports bucket not configured")
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("reports_bucket", cfg.ReportsBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ReportKey returns the object key: reports/{yyyy}/{mm}/{dd}/{run_id}.json.
func ReportKey(startedAt time.Time, runID string) string {
	t := startedAt.UTC()
	return path.Join(FolderReports, t.Format("2006"), t.Format("01"), t.Format("02"), runID+".json")
}

// PutReport uploads a JSON report body and returns its key.
func (s *S3) PutReport(ctx context.Context, startedAt time.Time, runID string, body []byte) (string, error) {
	key := ReportKey(startedAt, runID)
	if err := s.upload(ctx, s.cfg.ReportsBucket, key, "application/json", bytes.NewReader(body)); err != nil {
		return "", err
	}
	s.logger.Debug("run report archived", zap.String("bucket", s.cfg.ReportsBucket), zap.String("key", key))
	return key, nil
}

func (s *S3) upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}
