package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
)

// MaxImageSize caps a single uploaded image at 5MB.
const MaxImageSize = 5 << 20

// ImageStore writes uploaded post images to local disk. Files land under
// <dir>/posts/ and are served back at /uploads/posts/<name> by the router's
// file server.
type ImageStore struct {
	dir string
}

// NewImageStore creates the posts subdirectory if needed.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "posts"), 0o755); err != nil {
		return nil, fmt.Errorf("handler: creating upload dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// SavePostImage validates and stores one multipart image part. Only image/*
// content is accepted; the type is sniffed from the first bytes rather than
// trusted from the client's header.
func (s *ImageStore) SavePostImage(file multipart.File, header *multipart.FileHeader) (model.Image, error) {
	if header.Size > MaxImageSize {
		return model.Image{}, apperror.ValidationFailed("image", "Image must be 5MB or smaller")
	}

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return model.Image{}, fmt.Errorf("handler: reading upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return model.Image{}, apperror.ValidationFailed("image", "Only image uploads are allowed")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return model.Image{}, fmt.Errorf("handler: rewinding upload: %w", err)
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = extensionForType(contentType)
	}
	name := "post-" + xid.New().String() + ext

	dst, err := os.Create(filepath.Join(s.dir, "posts", name))
	if err != nil {
		return model.Image{}, fmt.Errorf("handler: creating image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxImageSize)); err != nil {
		return model.Image{}, fmt.Errorf("handler: writing image file: %w", err)
	}

	return model.Image{URL: "/uploads/posts/" + name}, nil
}

func extensionForType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
