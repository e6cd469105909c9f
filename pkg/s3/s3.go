package s3

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"golang.org/x/net/context"
)

var ErrMissingBucket = errors.New("AWS_BUCKET_NAME is required")

// ItfS3 archives raw provider documents.
type ItfS3 interface {
	UploadRawResult(ctx context.Context, key string, body []byte) (string, error)
	PresignUrl(key string) (string, error)
}

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
}

func New() (ItfS3, error) {
	bucketName := os.Getenv("AWS_BUCKET_NAME")
	if bucketName == "" {
		return nil, ErrMissingBucket
	}

	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: bucketName,
	}, nil
}

// RawResultKey lays raw documents out by day: raw/2006/01/02/<requestID>.json.
func RawResultKey(requestID string, t time.Time) string {
	return fmt.Sprintf("raw/%s/%s.json", t.UTC().Format("2006/01/02"), requestID)
}

func (s *s3Client) UploadRawResult(ctx context.Context, key string, body []byte) (string, error) {
	uploadOutput, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return uploadOutput.Location, nil
}

func (s *s3Client) PresignUrl(key string) (string, error) {
	_, err := s.client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("file does not exist: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	return req.Presign(15 * time.Minute)
}

func newSession() (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})
}
