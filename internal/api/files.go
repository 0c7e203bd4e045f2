package api

import (
	"context"
	"io"

	"github.com/classboard/classboard-cli/internal/models"
)

// FileService handles attachment upload and download. These go through the
// client's file transport, which carries a longer timeout than ordinary
// API calls.
type FileService struct {
	client *Client
}

func NewFileService(client *Client) *FileService {
	return &FileService{client: client}
}

func (s *FileService) Upload(ctx context.Context, fileName string, content io.Reader) (*models.FileInfo, error) {
	var out models.FileInfo
	if err := s.client.Upload(ctx, "/files", "file", fileName, content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *FileService) Download(ctx context.Context, fileID string, w io.Writer) error {
	return s.client.Download(ctx, "/files/"+fileID+"/content", w)
}
