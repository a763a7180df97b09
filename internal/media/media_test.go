// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tomtom215/vidstream/internal/breaker"
	"github.com/tomtom215/vidstream/internal/config"
)

func TestNewKey(t *testing.T) {
	tests := []struct {
		filename string
		wantExt  string
	}{
		{"clip.MP4", ".mp4"},
		{"movie.mkv", ".mkv"},
		{"noext", ""},
		{"weird.ext with space", ""},
		{"long.abcdefghijkl", ""},
	}
	for _, tt := range tests {
		key := newKey("videos/", tt.filename)
		if !strings.HasPrefix(key, "videos/") {
			t.Errorf("newKey(%q) = %q, missing prefix", tt.filename, key)
		}
		if filepath.Ext(key) != tt.wantExt {
			t.Errorf("newKey(%q) = %q, want extension %q", tt.filename, key, tt.wantExt)
		}
	}
	if newKey("", "a.mp4") == newKey("", "a.mp4") {
		t.Error("keys must be unique per upload")
	}
}

func TestHLSKey(t *testing.T) {
	if got := hlsKey("videos/abc.mp4"); got != "videos/abc.m3u8" {
		t.Errorf("hlsKey = %q", got)
	}
	if got := hlsKey("videos/abc"); got != "videos/abc.m3u8" {
		t.Errorf("hlsKey without ext = %q", got)
	}
}

func TestLocalHost_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	h, err := NewLocalHost(dir, "http://localhost:8080/media/")
	if err != nil {
		t.Fatalf("NewLocalHost: %v", err)
	}

	asset, err := h.Upload(context.Background(), UploadInput{
		Filename: "intro.mp4", ContentType: "video/mp4", Size: 11, Body: strings.NewReader("hello video"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(asset.URL, "http://localhost:8080/media/videos/") || !strings.HasSuffix(asset.URL, ".mp4") {
		t.Errorf("URL = %q", asset.URL)
	}
	if asset.HLSURL != strings.TrimSuffix(asset.URL, ".mp4")+".m3u8" {
		t.Errorf("HLSURL = %q", asset.HLSURL)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(asset.Key)))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(data) != "hello video" {
		t.Errorf("stored %q", data)
	}

	if err := h.Delete(context.Background(), asset.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, asset.Key)); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := h.Delete(context.Background(), asset.Key); err != nil {
		t.Errorf("second Delete should be a no-op: %v", err)
	}
}

func TestLocalHost_Rejects(t *testing.T) {
	h, err := NewLocalHost(t.TempDir(), "http://x")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := h.Upload(context.Background(), UploadInput{Filename: "a.mp4", Size: -1, Body: strings.NewReader("")}); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("empty upload err = %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "/abs/path"} {
		if err := h.Delete(context.Background(), key); err == nil {
			t.Errorf("Delete(%q) should fail", key)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Upload(ctx, UploadInput{Filename: "a.mp4", Size: 3, Body: strings.NewReader("abc")}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled upload err = %v", err)
	}
	if _, err := NewLocalHost("", "http://x"); err == nil {
		t.Error("empty dir should fail")
	}
}

type fakeObjectAPI struct {
	mu      sync.Mutex
	puts    map[string]string
	deletes []string
	err     error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = make(map[string]string)
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Host(t *testing.T) {
	api := &fakeObjectAPI{}
	cfg := config.S3Config{Bucket: "vids", Region: "eu-west-1", KeyPrefix: "uploads/"}
	h := NewS3HostWithClient(api, cfg, "")

	asset, err := h.Upload(context.Background(), UploadInput{Filename: "a.webm", Size: 4, Body: strings.NewReader("webm")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(asset.Key, "uploads/") {
		t.Errorf("Key = %q", asset.Key)
	}
	if !strings.HasPrefix(asset.URL, "https://vids.s3.eu-west-1.amazonaws.com/uploads/") {
		t.Errorf("URL = %q", asset.URL)
	}
	if api.puts["vids/"+asset.Key] != "webm" {
		t.Errorf("object not stored: %v", api.puts)
	}

	if err := h.Delete(context.Background(), asset.Key); err != nil {
		t.Fatal(err)
	}
	if len(api.deletes) != 1 || api.deletes[0] != asset.Key {
		t.Errorf("deletes = %v", api.deletes)
	}

	if _, err := h.Upload(context.Background(), UploadInput{Filename: "x", Size: 0, Body: strings.NewReader("")}); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("empty upload err = %v", err)
	}
}

func TestS3Host_CustomEndpointURL(t *testing.T) {
	h := NewS3HostWithClient(&fakeObjectAPI{}, config.S3Config{Bucket: "b", Endpoint: "http://minio:9000/"}, "")
	asset, err := h.Upload(context.Background(), UploadInput{Filename: "a.mp4", Size: 1, Body: strings.NewReader("a")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(asset.URL, "http://minio:9000/b/") {
		t.Errorf("URL = %q", asset.URL)
	}
}

func TestBreakerHost_FailsFastWhenOpen(t *testing.T) {
	api := &fakeObjectAPI{err: errors.New("503 slow down")}
	inner := NewS3HostWithClient(api, config.S3Config{Bucket: "b", Region: "r"}, "http://cdn")
	h := NewBreakerHost(inner, config.MediaBackendS3, breaker.New(breaker.Settings{
		Name: "media-test", ConsecutiveFailures: 2, Timeout: time.Minute,
	}))

	for i := 0; i < 2; i++ {
		if err := h.Delete(context.Background(), "k"); err == nil || breaker.IsOpen(err) {
			t.Fatalf("call %d: err = %v, want backend error", i, err)
		}
	}
	_, err := h.Upload(context.Background(), UploadInput{Filename: "a", Size: 1, Body: strings.NewReader("a")})
	if !breaker.IsOpen(err) {
		t.Errorf("err = %v, want open circuit", err)
	}
	if h.State() != "open" || h.Backend() != config.MediaBackendS3 || h.Unwrap() != Host(inner) {
		t.Errorf("state=%s backend=%s", h.State(), h.Backend())
	}
}

func TestNew_Local(t *testing.T) {
	h, err := New(context.Background(), config.MediaConfig{
		Backend:         config.MediaBackendLocal,
		LocalDir:        t.TempDir(),
		PublicBaseURL:   "http://localhost/media",
		BreakerFailures: 3,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := h.Unwrap().(*LocalHost); !ok {
		t.Errorf("Unwrap() = %T", h.Unwrap())
	}
	if _, err := New(context.Background(), config.MediaConfig{Backend: "ftp"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
