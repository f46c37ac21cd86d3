package storage

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBlobFetcher loads garment images from Azure Blob Storage.
type AzureBlobFetcher struct {
	client *azblob.Client
}

// NewAzureBlobFetcher creates a fetcher authenticated with a shared key.
func NewAzureBlobFetcher(accountName string, accountKey string) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobFetcher{client: client}, nil
}

// FetchImage accepts https://<account>.blob.core.windows.net/<container>/<blob>.
func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	containerName, blobName, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	body := downloadResponse.Body
	defer body.Close()

	img, _, err := image.Decode(io.LimitReader(body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// IsAzureBlobURL reports whether location points at Azure Blob Storage
func IsAzureBlobURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && strings.HasSuffix(u.Hostname(), ".blob.core.windows.net")
}

func parseBlobURL(blobURL string) (container, blob string, err error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	container, blob, ok := strings.Cut(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("invalid blob URL: expected /<container>/<blob> path, got %q", parsedURL.Path)
	}
	return container, blob, nil
}
