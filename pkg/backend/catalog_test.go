package backend

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/internal/errors"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	gets    int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3CatalogReadsAndCaches(t *testing.T) {
	objects := newFakeObjects()
	objects.objects["data/catalog.json"] = []byte(`{"products":[{"id":"prod_1","name":"Mug","unitAmount":1200,"currency":"usd"}]}`)

	now := time.Unix(1000, 0)
	c := NewS3Catalog(objects, "data", "catalog.json")
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		products, err := c.Products(context.Background())
		if err != nil {
			t.Fatalf("Products() error = %v", err)
		}
		if len(products) != 1 || products[0].Name != "Mug" {
			t.Fatalf("products = %+v", products)
		}
	}
	if objects.gets != 1 {
		t.Errorf("gets = %d, want 1 while cached", objects.gets)
	}

	now = now.Add(DefaultCatalogTTL)
	if _, err := c.Products(context.Background()); err != nil {
		t.Fatal(err)
	}
	if objects.gets != 2 {
		t.Errorf("gets = %d, want refetch after ttl", objects.gets)
	}
}

func TestS3CatalogPublish(t *testing.T) {
	objects := newFakeObjects()
	c := NewS3Catalog(objects, "data", "catalog.json").WithTTL(0)

	if err := c.Publish(context.Background(), SampleProducts("eur")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if objects.types["data/catalog.json"] != "application/json" {
		t.Errorf("content type = %q", objects.types["data/catalog.json"])
	}

	products, err := c.Products(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != len(SampleProducts("")) || products[0].Currency != "eur" {
		t.Errorf("products = %+v", products)
	}
}

func TestS3CatalogErrors(t *testing.T) {
	objects := newFakeObjects()
	c := NewS3Catalog(objects, "data", "missing.json")
	if _, err := c.Products(context.Background()); !stderrors.Is(err, errors.New("P072")) {
		t.Errorf("missing object error = %v, want P072", err)
	}

	objects.objects["data/bad.json"] = []byte("not json")
	c = NewS3Catalog(objects, "data", "bad.json")
	if _, err := c.Products(context.Background()); !stderrors.Is(err, errors.New("P072")) {
		t.Errorf("invalid object error = %v, want P072", err)
	}
}

func TestNewS3Client(t *testing.T) {
	env := map[string]string{"AWS_REGION": "eu-west-1"}
	getenv := func(k string) string { return env[k] }

	client := NewS3Client(config.CatalogConfig{Endpoint: "http://localhost:9000"}, getenv)
	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("region = %q", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("endpoint = %q path style = %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}

	if _, err := envCredentials(getenv)(context.Background()); !stderrors.Is(err, errors.New("P072")) {
		t.Errorf("missing credentials error = %v", err)
	}
	env["AWS_ACCESS_KEY_ID"], env["AWS_SECRET_ACCESS_KEY"] = "AKIA", "secret"
	creds, err := envCredentials(getenv)(context.Background())
	if err != nil || creds.AccessKeyID != "AKIA" {
		t.Errorf("credentials = %+v, %v", creds, err)
	}
}
