package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
)

// S3 stores attachment bytes in an S3 bucket, one object per
// attachment id. Downloads redirect to a presigned GET so the bytes
// never pass through the API process.
type S3 struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

func NewS3FromEnv(ctx context.Context) (*S3, error) {
	region := os.Getenv("S3_REGION")
	bucket := os.Getenv("S3_BUCKET")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.StorageFailure(err)
	}

	expiry := 10 * time.Minute
	if raw := os.Getenv("S3_PRESIGN_EXPIRY_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			expiry = time.Duration(secs) * time.Second
		}
	}

	client := s3.NewFromConfig(cfg)
	return &S3{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		expiry:    expiry,
	}, nil
}

func (s *S3) Put(ctx context.Context, id uuid.UUID, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id.String()),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errs.StorageFailure(err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id.String()),
	})
	if err != nil {
		return nil, errs.StorageFailure(err)
	}
	return out.Body, nil
}

// Download redirects the client to a presigned URL carrying the stored
// content type.
func (s *S3) Download(w http.ResponseWriter, r *http.Request, att model.Attachment) error {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(att.ID.String()),
	}
	if att.ContentType != "" {
		in.ResponseContentType = aws.String(att.ContentType)
	}
	presigned, err := s.presigner.PresignGetObject(r.Context(), in,
		s3.WithPresignExpires(s.expiry))
	if err != nil {
		return errs.StorageFailure(err)
	}
	http.Redirect(w, r, presigned.URL, http.StatusFound)
	return nil
}
