package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/internal/errors"
)

// DefaultCatalogTTL is how long S3Catalog serves a fetched catalog before
// reading the object again.
const DefaultCatalogTTL = time.Minute

// ObjectAPI is the subset of the S3 client used by S3Catalog.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// catalogFile is the JSON layout of the catalog object.
type catalogFile struct {
	Products []Product `json:"products"`
}

// S3Catalog serves products from one JSON object in S3.
//
// Example usage:
//
//	client := backend.NewS3Client(cfg.Backend.Catalog, os.Getenv)
//	catalog := backend.NewS3Catalog(client, "test-data", "catalog.json")
type S3Catalog struct {
	client ObjectAPI
	bucket string
	key    string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	cached  []Product
	fetched time.Time
}

// NewS3Catalog creates a catalog reading s3://bucket/key.
func NewS3Catalog(client ObjectAPI, bucket, key string) *S3Catalog {
	return &S3Catalog{
		client: client,
		bucket: bucket,
		key:    key,
		ttl:    DefaultCatalogTTL,
		now:    time.Now,
	}
}

// WithTTL sets the cache lifetime. Zero disables caching.
func (c *S3Catalog) WithTTL(ttl time.Duration) *S3Catalog {
	c.ttl = ttl
	return c
}

// Products implements Catalog.
func (c *S3Catalog) Products(ctx context.Context) ([]Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.ttl > 0 && c.now().Sub(c.fetched) < c.ttl {
		return c.cached, nil
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key),
	})
	if err != nil {
		return nil, errors.New("P072").WithDetailf("reading s3://%s/%s", c.bucket, c.key).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("P072").Wrap(err)
	}
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.New("P072").WithDetail("catalog object is not valid JSON").Wrap(err)
	}
	if file.Products == nil {
		file.Products = []Product{}
	}

	c.cached = file.Products
	c.fetched = c.now()
	return c.cached, nil
}

// Publish writes products as the catalog object and refreshes the cache.
func (c *S3Catalog) Publish(ctx context.Context, products []Product) error {
	data, err := json.MarshalIndent(catalogFile{Products: products}, "", "  ")
	if err != nil {
		return errors.New("P072").Wrap(err)
	}

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.New("P072").WithDetailf("writing s3://%s/%s", c.bucket, c.key).Wrap(err)
	}

	c.mu.Lock()
	c.cached = products
	c.fetched = c.now()
	c.mu.Unlock()
	return nil
}

// NewS3Client builds an S3 client for cfg. Credentials come from the
// standard AWS_* environment variables read through getenv. A custom
// endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Client(cfg config.CatalogConfig, getenv func(string) string) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials(getenv)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(getenv func(string) string) aws.CredentialsProviderFunc {
	return func(context.Context) (aws.Credentials, error) {
		id, secret := getenv("AWS_ACCESS_KEY_ID"), getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New("P072").
				WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	}
}

// SampleProducts returns generated test products in currency. Price IDs are
// placeholders; replace them with real test-mode prices before checkout.
func SampleProducts(currency string) []Product {
	if currency == "" {
		currency = config.DefaultCurrency
	}
	return []Product{
		{ID: "prod_sample_tshirt", Name: "T-shirt", Description: "Organic cotton tee", PriceID: "price_sample_tshirt", UnitAmount: 2000, Currency: currency},
		{ID: "prod_sample_mug", Name: "Mug", Description: "Stoneware, 350 ml", PriceID: "price_sample_mug", UnitAmount: 1200, Currency: currency},
		{ID: "prod_sample_stickers", Name: "Sticker pack", PriceID: "price_sample_stickers", UnitAmount: 500, Currency: currency},
		{ID: "prod_sample_basic", Name: "Basic plan", Description: "Monthly subscription", PriceID: "price_sample_basic", UnitAmount: 900, Currency: currency, Interval: "month"},
		{ID: "prod_sample_pro", Name: "Pro plan", Description: "Yearly subscription", PriceID: "price_sample_pro", UnitAmount: 9900, Currency: currency, Interval: "year"},
	}
}
