package debt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	resultDefaultBucket  = "deuda-vzla"
	resultPrefix         = "deuda/"
	resultDefaultRegion  = "us-east-1"
	resultDefaultBaseURL = "https://deuda-vzla.s3.us-east-1.amazonaws.com/"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func resultBucket() string {
	if b := strings.TrimSpace(os.Getenv("DEBT_S3_BUCKET")); b != "" {
		return b
	}
	return resultDefaultBucket
}

func resultRegion() string {
	if r := strings.TrimSpace(os.Getenv("DEBT_S3_REGION")); r != "" {
		return r
	}
	return resultDefaultRegion
}

func resultBaseURL() string {
	if u := strings.TrimSpace(os.Getenv("DEBT_S3_BASE_URL")); u != "" {
		u = strings.TrimSuffix(u, "/")
		return u + "/"
	}
	return resultDefaultBaseURL
}

func newS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(resultRegion()))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// uploadResultToS3 stores the generated workbook and returns its public URL.
func uploadResultToS3(ctx context.Context, fileName string, body []byte) (string, error) {
	client, err := newS3Client(ctx)
	if err != nil {
		return "", err
	}
	key := resultPrefix + fileName
	bucket := resultBucket()
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3 (bucket %s, key %s): %w", bucket, key, err)
	}
	return resultBaseURL() + key, nil
}

// StoredResult describes one generated workbook in the object store.
type StoredResult struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// listStoredResults enumerates generated workbooks, newest first.
func listStoredResults(ctx context.Context) ([]StoredResult, error) {
	client, err := newS3Client(ctx)
	if err != nil {
		return nil, err
	}
	bucket := resultBucket()
	out := make([]StoredResult, 0)
	var token *string
	for {
		resp, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(resultPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list results (bucket %s): %w", bucket, err)
		}
		for _, obj := range resp.Contents {
			key := aws.ToString(obj.Key)
			if key == resultPrefix {
				continue
			}
			r := StoredResult{
				Name: strings.TrimPrefix(key, resultPrefix),
				URL:  resultBaseURL() + key,
			}
			if obj.Size != nil {
				r.SizeBytes = *obj.Size
			}
			if obj.LastModified != nil {
				r.UpdatedAt = *obj.LastModified
			}
			out = append(out, r)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		token = resp.NextContinuationToken
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
