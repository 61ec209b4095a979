// Package s3doc stores the sent-records document as one object in an
// S3 compatible bucket (AWS S3, MinIO, R2).
package s3doc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mothmailer/mothmailer/store"
)

const DefaultKey = "mothmailer/sent.json"

// Config holds explicit construction parameters. Credentials fall back
// to the default AWS chain when AccessKeyID is empty.
type Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string // optional, for MinIO and friends
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Object struct {
	client objectAPI
	bucket string
	key    string
}

func New(ctx context.Context, cfg Config) (*Object, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3doc: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3doc: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newObject(client, cfg.Bucket, cfg.Key), nil
}

func newObject(client objectAPI, bucket, key string) *Object {
	if key == "" {
		key = DefaultKey
	}
	return &Object{client: client, bucket: bucket, key: key}
}

func (o *Object) Name() string {
	return "s3://" + o.bucket + "/" + o.key
}

func (o *Object) Read(ctx context.Context) ([]byte, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &o.bucket, Key: &o.key})
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (o *Object) Replace(ctx context.Context, b []byte) error {
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &o.bucket,
		Key:           &o.key,
		Body:          bytes.NewReader(b),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(b))),
	})
	return err
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
