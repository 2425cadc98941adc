package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"idproof/internal/platform/config"
	dErrors "idproof/pkg/domain-errors"
)

// S3Store persists documents in an S3 bucket. Keys are upserted: a
// resubmission under the same key replaces the previous object.
type S3Store struct {
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Store builds an S3-backed store from configuration. Static credentials
// are used when configured; otherwise the SDK default chain applies.
func NewS3Store(ctx context.Context, cfg config.ObjectStore) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(base, "/"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, req PutRequest) (PutResult, error) {
	cacheControl := req.CacheControl
	if cacheControl == "" {
		cacheControl = NoCache
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(req.Key),
		Body:         req.Body,
		ContentType:  aws.String(req.ContentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return PutResult{}, dErrors.Wrap(err, dErrors.CodeStorageFailed, "upload document to s3")
	}

	return PutResult{Ref: s.publicBaseURL + "/" + req.Key}, nil
}
