package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// AvatarFolder is where contact avatars are stored.
const AvatarFolder = "leadvault/avatars"

// AvatarUploader stores an image and returns its public URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, file io.Reader, filename string) (string, error)
}

type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cld:    cld,
		folder: AvatarFolder,
	}, nil
}

func (s *CloudinaryService) UploadAvatar(ctx context.Context, file io.Reader, filename string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         s.folder,
		ResourceType:   "image",
		UniqueFilename: boolPtr(true),
		Tags:           []string{"contact-avatar"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to Cloudinary: %w", filename, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

// UploadAvatarFromHeader opens a multipart file and uploads it.
func (s *CloudinaryService) UploadAvatarFromHeader(ctx context.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.UploadAvatar(ctx, file, header.Filename)
}

func boolPtr(b bool) *bool { return &b }
