package storage_files

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
)

type s3Storage struct {
	logger     commons.Logger
	bucket     string
	client     *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

// NewS3Storage uses the default credential chain. Endpoint, when set, points
// the client at an S3 compatible service.
func NewS3Storage(cfg config.AssetStoreConfig, logger commons.Logger, awsConfigs ...*aws.Config) (Storage, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(append([]*aws.Config{awsCfg}, awsConfigs...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create aws session: %w", err)
	}
	client := s3.New(sess)
	return &s3Storage{
		logger:     logger,
		bucket:     cfg.Bucket,
		client:     client,
		uploader:   s3manager.NewUploaderWithClient(client),
		downloader: s3manager.NewDownloaderWithClient(client),
	}, nil
}

func (s *s3Storage) Name() string {
	return "s3"
}

func (s *s3Storage) Store(ctx context.Context, key string, data []byte, contentType string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(k),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", k, err)
	}
	s.logger.Debugf("uploaded %d bytes to %s", len(data), out.Location)
	return nil
}

func (s *s3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	buf := aws.NewWriteAtBuffer(nil)
	_, err = s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, k)
		}
		return nil, fmt.Errorf("failed to download %s: %w", k, err)
	}
	return buf.Bytes(), nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", k, err)
	}
	return nil
}
