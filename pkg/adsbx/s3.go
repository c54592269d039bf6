package adsbx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-kit/kit/log/level"
)

const s3Scheme = "s3://"

func parseS3URI(source string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(source, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(source, s3Scheme)
	i := strings.IndexByte(rest, '/')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

func (l *Loader) client(ctx context.Context) (*s3.Client, error) {
	l.s3Once.Do(func() {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(l.cfg.S3Region)}
		if l.cfg.S3AccessKeyID != "" && l.cfg.S3SecretAccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(l.cfg.S3AccessKeyID, l.cfg.S3SecretAccessKey, ""),
			))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			l.s3Err = fmt.Errorf("load aws config: %w", err)
			return
		}
		l.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if l.cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(l.cfg.S3Endpoint)
			}
			o.UsePathStyle = l.cfg.S3PathStyle
		})
		level.Info(l.logger).Log("msg", "s3 client initialized", "region", l.cfg.S3Region, "endpoint", l.cfg.S3Endpoint)
	})
	return l.s3Client, l.s3Err
}

func (l *Loader) openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
