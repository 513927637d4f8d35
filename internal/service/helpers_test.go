package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"xchangez/internal/auth"
	"xchangez/internal/config"
	"xchangez/internal/storage"

	"github.com/stretchr/testify/require"
)

// notifierStub records every frame it is asked to deliver.
type notifierStub struct {
	mu     sync.Mutex
	toUser map[uint][]string
	toAll  []string
	err    error
}

func newNotifierStub() *notifierStub {
	return &notifierStub{toUser: make(map[uint][]string)}
}

func (n *notifierStub) ToUser(_ context.Context, userID uint, payload string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toUser[userID] = append(n.toUser[userID], payload)
	return n.err
}

func (n *notifierStub) ToAll(_ context.Context, payload string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toAll = append(n.toAll, payload)
	return n.err
}

// publisherStub is a stub for events.Publisher.
type publisherStub struct {
	publishFn func(ctx context.Context, postID, authorID uint, title string, createdAt time.Time, followerIDs []uint) error
}

func (p *publisherStub) PublishPostCreated(ctx context.Context, postID, authorID uint, title string, createdAt time.Time, followerIDs []uint) error {
	return p.publishFn(ctx, postID, authorID, title, createdAt, followerIDs)
}

func (p *publisherStub) Close() error { return nil }

func testTokens() *auth.Manager {
	return auth.NewManager(&config.Config{
		JWTSecret:        "test-secret-that-is-long-enough-123456",
		JWTIssuer:        "xchangez-api",
		JWTAudience:      "xchangez-client",
		JWTExpiryMinutes: 60,
	})
}

func testSink(t *testing.T) *storage.FileSystem {
	t.Helper()
	return storage.NewFileSystem(t.TempDir(), "http://media.test")
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
