package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AvatarService issues presigned URLs for avatar uploads and reads.
// Objects live in a single bucket keyed by user, one avatar per user.
type AvatarService interface {
	// CreateUploadURL returns a presigned PUT URL and the object key that
	// must be confirmed once the client has uploaded.
	CreateUploadURL(ctx context.Context, userID, contentType string) (uploadURL, objectKey string, err error)
	// ConfirmUpload verifies the object exists and stores its key on the profile.
	ConfirmUpload(ctx context.Context, userID, objectKey string) error
	// GetAvatarURL returns a short-lived GET URL for a stored avatar key.
	GetAvatarURL(ctx context.Context, objectKey string) (string, error)
}

type avatarService struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	userRepo      repository.UserRepository
	logger        zerolog.Logger
}

func NewAvatarService(s3Client *s3.Client, bucket string, userRepo repository.UserRepository, logger zerolog.Logger) AvatarService {
	lg := logger.With().Str("service", "AvatarService").Logger()
	return &avatarService{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        bucket,
		userRepo:      userRepo,
		logger:        lg,
	}
}

func (s *avatarService) CreateUploadURL(ctx context.Context, userID, contentType string) (string, string, error) {
	switch contentType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return "", "", fmt.Errorf("unsupported avatar content type: %s", contentType)
	}
	objectKey := fmt.Sprintf("%s/%s", userID, uuid.NewString())
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to presign avatar upload")
		return "", "", fmt.Errorf("presign avatar upload: %w", err)
	}
	return request.URL, objectKey, nil
}

func (s *avatarService) ConfirmUpload(ctx context.Context, userID, objectKey string) error {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("avatar object not found: %w", err)
	}
	if err := s.userRepo.UpdateAvatarURL(ctx, userID, objectKey); err != nil {
		return fmt.Errorf("store avatar key: %w", err)
	}
	return nil
}

func (s *avatarService) GetAvatarURL(ctx context.Context, objectKey string) (string, error) {
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign avatar get: %w", err)
	}
	return resp.URL, nil
}
