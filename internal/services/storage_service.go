package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

type StorageService interface {
	UploadFile(ctx context.Context, file multipart.File, filename string, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	GetSignedURL(ctx context.Context, fileURL string) (string, error)
}

// SupabaseStorageService talks to a Supabase storage bucket over its REST
// surface. All objects live under folder prefixes inside one bucket.
type SupabaseStorageService struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorageService(baseURL, bucket, serviceKey string) *SupabaseStorageService {
	return &SupabaseStorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: http.DefaultClient,
	}
}

// BuildObjectName returns a collision-free object name that preserves
// the original file extension.
func BuildObjectName(originalFilename string) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	return uuid.NewString() + ext
}

func (s *SupabaseStorageService) UploadFile(ctx context.Context, file multipart.File, filename string, folder string) (string, error) {
	objectPath := path.Join(strings.Trim(folder, "/"), filename)

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	uploadURL := s.objectURL("object", objectPath)
	resp, err := s.do(ctx, http.MethodPost, uploadURL, content, http.DetectContentType(content), map[string]string{"x-upsert": "true"})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	resp.Body.Close()

	return s.objectURL("object/public", objectPath), nil
}

func (s *SupabaseStorageService) DeleteFile(ctx context.Context, fileURL string) error {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return err
	}

	resp, err := s.do(ctx, http.MethodDelete, s.objectURL("object", objectPath), nil, "", nil)
	if err != nil {
		// A missing object is already the state we want.
		var statusErr *storageStatusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("delete file: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (s *SupabaseStorageService) GetSignedURL(ctx context.Context, fileURL string) (string, error) {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]int{"expiresIn": 3600})
	if err != nil {
		return "", fmt.Errorf("marshal signed url payload: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPost, s.objectURL("object/sign", objectPath), payload, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("get signed url: %w", err)
	}
	defer resp.Body.Close()

	var response struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode signed url response: %w", err)
	}
	if response.SignedURL == "" {
		return "", fmt.Errorf("signed url missing from response")
	}

	return s.baseURL + "/storage/v1" + response.SignedURL, nil
}

func (s *SupabaseStorageService) objectURL(operation, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/%s/%s/%s", s.baseURL, operation, s.bucket, objectPath)
}

// do sends an authenticated request and fails on non-2xx responses. The
// caller owns resp.Body when err is nil.
func (s *SupabaseStorageService) do(ctx context.Context, method, requestURL string, body []byte, contentType string, extraHeaders map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range extraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &storageStatusError{code: resp.StatusCode, detail: strings.TrimSpace(string(detail))}
	}
	return resp, nil
}

type storageStatusError struct {
	code   int
	detail string
}

func (e *storageStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.detail)
}

func (s *SupabaseStorageService) objectPathFromURL(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}

	publicPrefix := "/storage/v1/object/public/" + s.bucket + "/"
	objectPrefix := "/storage/v1/object/" + s.bucket + "/"

	switch {
	case strings.HasPrefix(parsed.Path, publicPrefix):
		return strings.TrimPrefix(parsed.Path, publicPrefix), nil
	case strings.HasPrefix(parsed.Path, objectPrefix):
		return strings.TrimPrefix(parsed.Path, objectPrefix), nil
	default:
		return "", fmt.Errorf("file url does not belong to configured bucket")
	}
}
