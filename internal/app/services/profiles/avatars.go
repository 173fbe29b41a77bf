package profiles

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// AvatarStore is the object storage bucket holding profile pictures.
// *client.BucketClient from the Supabase client satisfies it.
type AvatarStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, paths ...string) error
	PublicURL(path string) string
}

type storedObject struct {
	data        []byte
	contentType string
}

// MemoryAvatars keeps avatars in process and serves them over HTTP. It is used
// when no Supabase storage bucket is configured.
type MemoryAvatars struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]storedObject
}

var _ AvatarStore = (*MemoryAvatars)(nil)

// NewMemoryAvatars creates an in-process bucket whose public URLs start with baseURL.
func NewMemoryAvatars(baseURL string) *MemoryAvatars {
	return &MemoryAvatars{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]storedObject),
	}
}

func (m *MemoryAvatars) Upload(_ context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = storedObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (m *MemoryAvatars) Delete(_ context.Context, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.objects, p)
	}
	return nil
}

func (m *MemoryAvatars) PublicURL(path string) string {
	return m.baseURL + "/" + strings.TrimLeft(path, "/")
}

// ServeHTTP serves an object by the path remaining after the mount prefix has
// been stripped.
func (m *MemoryAvatars) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimLeft(r.URL.Path, "/")
	m.mu.RLock()
	obj, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(obj.data)
}
