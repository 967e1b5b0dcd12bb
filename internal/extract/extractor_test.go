package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viaantech/resume-ranking/internal/blob"
)

// fakeBlobStore serves canned blobs for extractor tests.
type fakeBlobStore struct {
	blobs map[string][]byte
	err   error
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.blobs[key]
	if !ok {
		return nil, &blob.NotFoundError{Key: key}
	}
	return data, nil
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte) error {
	if f.blobs == nil {
		f.blobs = map[string][]byte{}
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.blobs[key]
	return ok, nil
}

func TestExtractPlainText(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{
		"submissions/s1/resume.txt": []byte("John Doe, 5 years, AWS, Python\n"),
	}}
	ex := NewDocExtractor(store, nil)

	text, err := ex.Extract(context.Background(), "submissions/s1/resume.txt", "resume.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "John Doe, 5 years, AWS, Python", text)
}

func TestExtractContentTypeParameters(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{
		"k": []byte("some resume text"),
	}}
	ex := NewDocExtractor(store, nil)

	text, err := ex.Extract(context.Background(), "k", "resume.txt", "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "some resume text", text)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{"k": []byte("data")}}
	ex := NewDocExtractor(store, nil)

	_, err := ex.Extract(context.Background(), "k", "photo.png", "image/png")
	require.Error(t, err)

	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "image/png", unsupported.ContentType)
	assert.False(t, IsRetryable(err))
}

func TestExtractUnsupportedFormatSkipsStorage(t *testing.T) {
	// A bad content type must fail before any storage access.
	store := &fakeBlobStore{err: errors.New("storage should not be touched")}
	ex := NewDocExtractor(store, nil)

	_, err := ex.Extract(context.Background(), "k", "x.bin", "application/octet-stream")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

func TestExtractMissingBlob(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{}}
	ex := NewDocExtractor(store, nil)

	_, err := ex.Extract(context.Background(), "submissions/missing.pdf", "missing.pdf", "application/pdf")
	require.Error(t, err)

	var unreadable *SourceUnreadableError
	require.ErrorAs(t, err, &unreadable)
	assert.True(t, IsRetryable(err))
}

func TestExtractCorruptPDF(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{
		"bad.pdf": []byte("this is not a pdf"),
	}}
	ex := NewDocExtractor(store, nil)

	_, err := ex.Extract(context.Background(), "bad.pdf", "bad.pdf", "application/pdf")
	require.Error(t, err)

	var corrupt *CorruptDocumentError
	require.ErrorAs(t, err, &corrupt)
	assert.False(t, IsRetryable(err))
}

func TestExtractEmptyText(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{
		"empty.txt": []byte("   \n\t "),
	}}
	ex := NewDocExtractor(store, nil)

	_, err := ex.Extract(context.Background(), "empty.txt", "empty.txt", "text/plain")
	require.Error(t, err)
	assert.True(t, IsEmptyExtraction(err))
	assert.True(t, IsRetryable(err))
}

func TestExtractInvalidUTF8(t *testing.T) {
	store := &fakeBlobStore{blobs: map[string][]byte{
		"bad.txt": {0xff, 0xfe, 0xfd},
	}}
	ex := NewDocExtractor(store, nil)

	_, err := ex.Extract(context.Background(), "bad.txt", "bad.txt", "text/plain")
	var corrupt *CorruptDocumentError
	require.ErrorAs(t, err, &corrupt)
}
