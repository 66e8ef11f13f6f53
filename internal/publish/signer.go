// Package publish turns internal artifact references into signed,
// time-limited URLs and scrubs vendor credentials from the process after a
// run completes.
package publish

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/services"
)

// Resolution modes reported on a published artifact.
const (
	ModeDirect = "direct"
	ModeStore  = "store"
	ModeLocal  = "local"
)

// DefaultExpiryHours is used when the caller passes a non-positive expiry.
const DefaultExpiryHours = 24

// Published is a signed artifact reference.
type Published struct {
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
	Mode      string    `json:"mode"`
}

// Signer resolves artifact keys and signs their URLs. A missing secret is a
// configuration error at construction time, never a silently unsigned URL.
type Signer struct {
	secret   []byte
	store    blobstore.Store
	baseURL  string
	localDir string
	now      func() time.Time
}

// NewSigner builds a signer. store may be nil when metadata lookups are not
// needed; baseURL and localDir may be empty.
func NewSigner(secret string, store blobstore.Store, baseURL, localDir string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "new-signer", "signing secret is not configured", nil)
	}
	return &Signer{
		secret:   []byte(secret),
		store:    store,
		baseURL:  strings.TrimRight(baseURL, "/"),
		localDir: strings.TrimRight(localDir, "/"),
		now:      time.Now,
	}, nil
}

// PublishVideo resolves keyOrPath to a URL and signs it. Resolution tries,
// in order: a direct URL or absolute path, a "url" metadata entry on the
// stored blob, and a local-dev path under the configured directory. An
// unresolvable key is a hard failure.
func (s *Signer) PublishVideo(ctx context.Context, keyOrPath string, expiryHours int) (Published, error) {
	if expiryHours <= 0 {
		expiryHours = DefaultExpiryHours
	}

	raw, mode, err := s.resolve(ctx, keyOrPath)
	if err != nil {
		return Published{}, err
	}

	expiresAt := s.now().Add(time.Duration(expiryHours) * time.Hour).UTC()
	signed, err := s.sign(raw, expiresAt)
	if err != nil {
		return Published{}, services.Wrap(services.ErrSecurity, "publish", "publish-video", fmt.Sprintf("sign %q", raw), err)
	}

	return Published{SignedURL: signed, ExpiresAt: expiresAt, Mode: mode}, nil
}

func (s *Signer) resolve(ctx context.Context, keyOrPath string) (string, string, error) {
	trimmed := strings.TrimSpace(keyOrPath)
	if trimmed == "" {
		return "", "", services.Wrap(services.ErrValidation, "publish", "resolve", "artifact key is empty", nil)
	}

	if strings.Contains(trimmed, "://") {
		return trimmed, ModeDirect, nil
	}
	if strings.HasPrefix(trimmed, "/") {
		if s.baseURL != "" {
			return s.baseURL + trimmed, ModeDirect, nil
		}
		return trimmed, ModeDirect, nil
	}

	if s.store != nil {
		info, err := s.store.Head(ctx, trimmed)
		if err != nil {
			return "", "", services.Wrap(services.ErrStoreUnavailable, "publish", "resolve", fmt.Sprintf("head %q", trimmed), err)
		}
		if info != nil {
			if u := info.Metadata["url"]; u != "" {
				return u, ModeStore, nil
			}
			if s.baseURL != "" {
				return s.baseURL + "/" + trimmed, ModeStore, nil
			}
		}
	}

	if s.localDir != "" {
		return path.Join(s.localDir, trimmed), ModeLocal, nil
	}

	return "", "", services.Wrap(services.ErrSecurity, "publish", "resolve",
		fmt.Sprintf("artifact %q cannot be resolved to a URL", trimmed), nil)
}

func (s *Signer) sign(raw string, expiresAt time.Time) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	expMillis := expiresAt.UnixMilli()
	sig := s.signature(u.Path, expMillis)

	query := u.Query()
	query.Set("exp", strconv.FormatInt(expMillis, 10))
	query.Set("sig", sig)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (s *Signer) signature(pathname string, expMillis int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(pathname + ":" + strconv.FormatInt(expMillis, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether rawURL carries a valid, unexpired signature.
// Signature comparison is constant-time.
func (s *Signer) Verify(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	query := u.Query()
	expMillis, err := strconv.ParseInt(query.Get("exp"), 10, 64)
	if err != nil {
		return false
	}
	if s.now().UnixMilli() > expMillis {
		return false
	}

	want := s.signature(u.Path, expMillis)
	got := query.Get("sig")
	return hmac.Equal([]byte(want), []byte(got))
}
