package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 10 * time.Minute
	presignExpiry  = time.Hour
)

// Client предоставляет методы для работы с S3-совместимым хранилищем
type Client struct {
	api           objectAPI
	presign       presignAPI
	defaultBucket string
	region        string
	log           *logrus.Entry
}

// NewClient создает новый экземпляр клиента S3
func NewClient(conf *Config) (*Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		conf.AccessKeyID,
		conf.SecretAccessKey,
		"",
	))

	client := s3.New(s3.Options{
		BaseEndpoint:     aws.String(conf.Endpoint),
		Region:           conf.Region,
		Credentials:      creds,
		UsePathStyle:     true,
		RetryMode:        aws.RetryModeAdaptive,
		RetryMaxAttempts: 3,
		// S3-совместимые хранилища не понимают trailing checksum
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})

	return &Client{
		api:           client,
		presign:       s3.NewPresignClient(client),
		defaultBucket: conf.Bucket,
		region:        conf.Region,
		log:           logger.WithComponent("s3"),
	}, nil
}

func (c *Client) bucketOrDefault(bucket string) (string, error) {
	if bucket = strings.TrimSpace(bucket); bucket != "" {
		return bucket, nil
	}
	if c.defaultBucket == "" {
		return "", fmt.Errorf("%w: bucket name is required", domain.ErrBadRequest)
	}
	return c.defaultBucket, nil
}

// objectKey строит ключ вида <folder>/<fileName|uuid>-<originalname>
func objectKey(folder, fileName, original string) string {
	if fileName == "" {
		fileName = uuid.New().String()
	}
	key := fileName + "-" + original
	if folder = strings.Trim(folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	return key
}

func (c *Client) UploadImage(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.File == nil || !req.File.IsImage() {
		return nil, fmt.Errorf("%w: invalid file type, only images are allowed", domain.ErrBadRequest)
	}
	return c.upload(ctx, req)
}

func (c *Client) UploadVideo(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.File == nil || !req.File.IsVideo() {
		return nil, fmt.Errorf("%w: invalid file type, only videos are allowed", domain.ErrBadRequest)
	}
	return c.upload(ctx, req)
}

// upload кладёт объект в существующий бакет и возвращает ссылку, подписанную на час
func (c *Client) upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.File.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	bucket, err := c.bucketOrDefault(req.Bucket)
	if err != nil {
		return nil, err
	}

	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: bucket %s does not exist", domain.ErrNotFound, bucket)
	}

	key := objectKey(req.Folder, req.FileName, req.File.Name)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.File.Data),
		ContentType:   aws.String(req.File.MIMEType),
		ContentLength: aws.Int64(int64(len(req.File.Data))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	signed, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = presignExpiry
	})
	if err != nil {
		c.deleteObject(bucket, key)
		return nil, fmt.Errorf("failed to presign object url: %w", err)
	}

	c.log.WithFields(logrus.Fields{"bucket": bucket, "key": key}).Info("object uploaded")
	return &UploadResult{URL: signed.URL, Key: key}, nil
}

// deleteObject убирает объект, для которого не удалось выдать ссылку
func (c *Client) deleteObject(bucket, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		c.log.WithError(err).WithField("key", key).Error("failed to delete orphaned object")
	}
}

// BucketExists - HEAD по бакету, 404 означает отсутствие
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	bucket, err := c.bucketOrDefault(bucket)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
}

// CreateBucket создаёт бакет; существующий бакет не считается ошибкой
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return fmt.Errorf("%w: bucket name is required", domain.ErrBadRequest)
	}

	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		c.log.WithField("bucket", bucket).Info("bucket already exists")
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.region != "" && c.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := c.api.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		var taken *types.BucketAlreadyExists
		if errors.As(err, &taken) {
			return fmt.Errorf("%w: bucket %s is taken", domain.ErrConflict, bucket)
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	c.log.WithField("bucket", bucket).Info("bucket created")
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
