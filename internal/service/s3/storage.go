package s3

import (
	"context"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"contribflow/internal/domain"
)

// objectAPI - часть s3.Client, которой пользуется хранилище
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// UploadRequest - файл и место, куда его положить
type UploadRequest struct {
	File     *domain.FileUpload
	Bucket   string
	Folder   string
	FileName string
}

type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Storage определяет операции простого S3-хранилища
type Storage interface {
	UploadImage(ctx context.Context, req UploadRequest) (*UploadResult, error)
	UploadVideo(ctx context.Context, req UploadRequest) (*UploadResult, error)
	CreateBucket(ctx context.Context, bucket string) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
}
