package report

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/primitives/internal/config"
	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/scenario"
)

// PutObjectAPI is the part of *s3.Client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads reports to Bucket under Prefix.
//
//	cfg, _ := awsconfig.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//	sink := report.NewS3Sink(client, "my-bucket", "reports/")
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink creates an S3Sink.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// NewS3SinkFromConfig builds an S3 client from cfg and the default AWS
// credential chain (environment, shared config files, IMDS). A non-empty
// cfg.Endpoint selects path-style addressing for S3-compatible stores.
func NewS3SinkFromConfig(ctx context.Context, cfg config.ReportConfig) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("E101").WithDetail("report.bucket is required for the s3 sink")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.New("E301").WithDetail("loading AWS configuration").Wrap(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Sink(client, cfg.Bucket, cfg.Prefix), nil
}

// Key returns the object key for name.
func (s *S3Sink) Key(name string) string {
	return s.prefix + name + ".json"
}

// Put uploads r as JSON.
func (s *S3Sink) Put(ctx context.Context, name string, r *scenario.Report) error {
	data, err := encode(r)
	if err != nil {
		return err
	}

	key := s.Key(name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"scenario":    r.Name,
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New("E301").WithDetailf("s3://%s/%s", s.bucket, key).Wrap(err)
	}
	return nil
}
