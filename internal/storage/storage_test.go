package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestFileStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	url, err := store.Upload(context.Background(), []byte("jpeg"), "/students/s1/a.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if url != "http://localhost:8080/static/students/s1/a.jpg" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "students", "s1", "a.jpg"))
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("file not written: %q %v", data, err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	for _, key := range []string{"../etc/passwd", "a/../../b", "", "  "} {
		if _, err := store.Upload(context.Background(), nil, key, ""); err == nil {
			t.Fatalf("Upload(%q) expected error", key)
		}
	}
}

func TestFileStoreHonoursCancellation(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Upload(ctx, []byte("x"), "a.jpg", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3StoreUpload(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "seva-photos", region: "ap-south-1"}

	url, err := store.Upload(context.Background(), []byte("png"), "students/s1/x.png", "image/png")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if url != "https://seva-photos.s3.ap-south-1.amazonaws.com/students/s1/x.png" {
		t.Fatalf("url = %q", url)
	}
	if aws.ToString(fake.input.Bucket) != "seva-photos" || aws.ToString(fake.input.ContentType) != "image/png" {
		t.Fatalf("unexpected input %+v", fake.input)
	}

	fake.err = errors.New("access denied")
	if _, err := store.Upload(context.Background(), []byte("png"), "k.png", "image/png"); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped s3 error, got %v", err)
	}
}

func TestImageHelpers(t *testing.T) {
	if ext, ok := ImageExtension("IMAGE/JPEG"); !ok || ext != ".jpg" {
		t.Fatalf("ImageExtension(jpeg) = %q, %v", ext, ok)
	}
	if _, ok := ImageExtension("application/pdf"); ok {
		t.Fatalf("pdf accepted as image")
	}
	key := NewObjectKey("students", "s1", ".png")
	if !strings.HasPrefix(key, "students/s1/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
}
