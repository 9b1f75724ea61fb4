package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/config"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"receipts/GV1.pdf", "receipts/GV1.pdf", false},
		{"/receipts//GV1.pdf", "receipts/GV1.pdf", false},
		{"./a\\b.pdf", "a/b.pdf", false},
		{"../etc/passwd", "", true},
		{"..", "", true},
		{"  ", "", true},
	}
	for _, tt := range tests {
		got, err := sanitizeKey(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLocalStorage_Put(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://api.local/")
	require.NoError(t, err)
	assert.Equal(t, dir, s.BasePath())

	url, err := s.Put(context.Background(), "receipts/GV2025-1.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://api.local/static/receipts/GV2025-1.pdf", url)

	data, err := os.ReadFile(filepath.Join(dir, "receipts", "GV2025-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = s.Put(context.Background(), "../x", nil, "")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "a.pdf", nil, "")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewLocalStorage(" ", "")
	assert.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Put(t *testing.T) {
	p := &fakePutter{}
	s := newS3Storage(p, "gv-docs", "us-east-1", "/receipts/", "")

	url, err := s.Put(context.Background(), "GV1.pdf", []byte("pdf"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://gv-docs.s3.us-east-1.amazonaws.com/receipts/GV1.pdf", url)
	assert.Equal(t, "gv-docs", aws.ToString(p.input.Bucket))
	assert.Equal(t, "receipts/GV1.pdf", aws.ToString(p.input.Key))
	assert.Equal(t, "application/pdf", aws.ToString(p.input.ContentType))
	assert.Equal(t, "pdf", string(p.body))

	cdn := newS3Storage(p, "gv-docs", "us-east-1", "", "https://cdn.gradvillage.org/")
	url, err = cdn.Put(context.Background(), "GV2.pdf", nil, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.gradvillage.org/GV2.pdf", url)

	p.err = errors.New("access denied")
	_, err = s.Put(context.Background(), "GV3.pdf", nil, "application/pdf")
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Storage(t *testing.T) {
	_, err := NewS3Storage(context.Background(), "", "us-east-1", "", "")
	assert.Error(t, err)

	orig := loadAWSConfig
	t.Cleanup(func() { loadAWSConfig = orig })
	loadAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	_, err = NewS3Storage(context.Background(), "bucket", "us-east-1", "", "")
	assert.ErrorContains(t, err, "no credentials")

	loadAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	s, err := NewS3Storage(context.Background(), "bucket", "us-east-1", "receipts", "")
	require.NoError(t, err)
	assert.Equal(t, "receipts", s.prefix)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), config.StorageConfig{Driver: "local", LocalDir: dir}, "http://localhost:8080")
	require.NoError(t, err)
	local, ok := s.(*LocalStorage)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080", local.publicBaseURL)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"}, "")
	assert.Error(t, err)
}
