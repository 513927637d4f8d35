// Package storage persists uploaded media and classifies image files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for containers or names that escape the media root.
var ErrInvalidPath = errors.New("invalid storage path")

// Sink stores files under named containers and addresses them by URL.
type Sink interface {
	Save(ctx context.Context, data []byte, name, ext, container, contentType string) (string, error)
	Delete(ctx context.Context, container, fileURL string) error
	Edit(ctx context.Context, data []byte, name, ext, container, fileURL, contentType string) (string, error)
}

// UserContainer is where a user's avatar and cover live.
func UserContainer(userID uint) string {
	return fmt.Sprintf("multimedia/usuarios/%d", userID)
}

// PostContainer is where a post's media files live.
func PostContainer(postID uint) string {
	return fmt.Sprintf("multimedia/publicaciones/%d", postID)
}

// FileSystem is a Sink rooted at a local directory and served from baseURL.
type FileSystem struct {
	root    string
	baseURL string
}

// NewFileSystem returns a FileSystem sink.
func NewFileSystem(root, baseURL string) *FileSystem {
	return &FileSystem{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root is the directory files are written under.
func (f *FileSystem) Root() string { return f.root }

func (f *FileSystem) resolve(container, file string) (string, error) {
	rel := path.Clean(path.Join(container, file))
	if rel == "." || strings.HasPrefix(rel, "..") || path.IsAbs(rel) || file == "" || strings.ContainsAny(file, `/\`) {
		return "", ErrInvalidPath
	}
	return filepath.Join(f.root, filepath.FromSlash(rel)), nil
}

func (f *FileSystem) url(container, file string) string {
	return f.baseURL + "/" + strings.Trim(container, "/") + "/" + url.PathEscape(file)
}

// Save writes data as container/name+ext and returns its public URL.
func (f *FileSystem) Save(ctx context.Context, data []byte, name, ext, container, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file := name + ext
	dest, err := f.resolve(container, file)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return "", fmt.Errorf("create container %s: %w", container, err)
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", file, err)
	}
	return f.url(container, file), nil
}

// Delete removes the file addressed by fileURL. A missing file is not an error.
func (f *FileSystem) Delete(ctx context.Context, container, fileURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fileURL == "" {
		return nil
	}
	file := path.Base(fileURL)
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		file = path.Base(u.Path)
	}
	if unescaped, err := url.PathUnescape(file); err == nil {
		file = unescaped
	}
	target, err := f.resolve(container, file)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", file, err)
	}
	return nil
}

// Edit replaces the file at fileURL with data saved as name+ext.
func (f *FileSystem) Edit(ctx context.Context, data []byte, name, ext, container, fileURL, contentType string) (string, error) {
	if err := f.Delete(ctx, container, fileURL); err != nil {
		return "", err
	}
	return f.Save(ctx, data, name, ext, container, contentType)
}
