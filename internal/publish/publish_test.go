package publish_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/logging"
	"reelsmith/internal/publish"
	"reelsmith/internal/services"
)

func newSigner(t *testing.T, store blobstore.Store, baseURL, localDir string) *publish.Signer {
	t.Helper()
	signer, err := publish.NewSigner("test-secret", store, baseURL, localDir)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	return signer
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := publish.NewSigner("  ", nil, "", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPublishVideoDirectURL(t *testing.T) {
	signer := newSigner(t, nil, "", "")
	published, err := signer.PublishVideo(context.Background(), "https://cdn.example.com/video/r1.mp4", 24)
	if err != nil {
		t.Fatalf("PublishVideo failed: %v", err)
	}
	if published.Mode != publish.ModeDirect {
		t.Fatalf("expected direct mode, got %q", published.Mode)
	}

	u, err := url.Parse(published.SignedURL)
	if err != nil {
		t.Fatalf("signed url does not parse: %v", err)
	}
	if u.Query().Get("exp") == "" || u.Query().Get("sig") == "" {
		t.Fatalf("expected exp and sig params, got %q", published.SignedURL)
	}
	if !signer.Verify(published.SignedURL) {
		t.Fatal("signer rejects its own signature")
	}
}

func TestPublishVideoStoreMetadataLookup(t *testing.T) {
	store := blobstore.NewMemory()
	ctx := context.Background()
	value, _ := json.Marshal(map[string]string{"status": "rendered"})
	if err := store.Set(ctx, "final/r1.json", value, map[string]string{
		"url": "https://cdn.example.com/final/r1.mp4",
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	signer := newSigner(t, store, "", "")
	published, err := signer.PublishVideo(ctx, "final/r1.json", 24)
	if err != nil {
		t.Fatalf("PublishVideo failed: %v", err)
	}
	if published.Mode != publish.ModeStore {
		t.Fatalf("expected store mode, got %q", published.Mode)
	}
	if !strings.HasPrefix(published.SignedURL, "https://cdn.example.com/final/r1.mp4?") {
		t.Fatalf("unexpected signed url %q", published.SignedURL)
	}
}

func TestPublishVideoLocalDevPath(t *testing.T) {
	signer := newSigner(t, blobstore.NewMemory(), "", "/tmp/reelsmith-out")
	published, err := signer.PublishVideo(context.Background(), "video/r1.mp4", 24)
	if err != nil {
		t.Fatalf("PublishVideo failed: %v", err)
	}
	if published.Mode != publish.ModeLocal {
		t.Fatalf("expected local mode, got %q", published.Mode)
	}
	if !strings.HasPrefix(published.SignedURL, "/tmp/reelsmith-out/video/r1.mp4?") {
		t.Fatalf("unexpected signed url %q", published.SignedURL)
	}
}

func TestPublishVideoUnresolvableKeyFails(t *testing.T) {
	signer := newSigner(t, blobstore.NewMemory(), "", "")
	if _, err := signer.PublishVideo(context.Background(), "no/such/key.mp4", 24); !errors.Is(err, services.ErrSecurity) {
		t.Fatalf("expected security error, got %v", err)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := newSigner(t, nil, "", "")
	published, err := signer.PublishVideo(context.Background(), "https://cdn.example.com/video/r1.mp4", 24)
	if err != nil {
		t.Fatalf("PublishVideo failed: %v", err)
	}

	tampered := strings.Replace(published.SignedURL, "/video/r1.mp4", "/video/r2.mp4", 1)
	if signer.Verify(tampered) {
		t.Fatal("expected tampered path to fail verification")
	}

	other, err := publish.NewSigner("other-secret", nil, "", "")
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	if other.Verify(published.SignedURL) {
		t.Fatal("expected wrong secret to fail verification")
	}
}

func TestVerifyRejectsMissingParams(t *testing.T) {
	signer := newSigner(t, nil, "", "")
	if signer.Verify("https://cdn.example.com/video/r1.mp4") {
		t.Fatal("expected unsigned url to fail verification")
	}
}

func TestFlushCredentialsIdempotent(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ELEVENLABS_API_KEY", "el-test")

	first := publish.FlushCredentials(logging.NewNop())
	if first < 2 {
		t.Fatalf("expected at least 2 wiped, got %d", first)
	}
	if _, present := os.LookupEnv("OPENAI_API_KEY"); present {
		t.Fatal("expected OPENAI_API_KEY to be unset")
	}

	second := publish.FlushCredentials(logging.NewNop())
	if second != 0 {
		t.Fatalf("expected second flush to wipe 0, got %d", second)
	}
}
