package service

import (
	"context"
	"fmt"
	"hash/crc32"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretService stores per-user model provider API keys in Secret Manager so
// users can bring their own key for course generation.
type SecretService interface {
	StoreUserModelKey(ctx context.Context, userID, apiKey string) error
	GetUserModelKey(ctx context.Context, userID string) (string, error)
	DeleteUserModelKey(ctx context.Context, userID string) error
}

type secretService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretService(ctx context.Context, cfg *config.Config) (SecretService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

func (s *secretService) secretName(userID string) string {
	return fmt.Sprintf("user-%s-model-key", userID)
}

func (s *secretService) secretPath(userID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretName(userID))
}

func (s *secretService) StoreUserModelKey(ctx context.Context, userID, apiKey string) error {
	secretPath := s.secretPath(userID)

	secretExists := true
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{
		Name: secretPath,
	})
	if err != nil {
		secretExists = false
	}

	if !secretExists {
		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretName(userID),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		}
		if _, err := s.client.CreateSecret(ctx, createReq); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	payload := []byte(apiKey)
	checksum := int64(crc32.Checksum(payload, crc32.MakeTable(crc32.Castagnoli)))
	addVersionReq := &secretmanagerpb.AddSecretVersionRequest{
		Parent: secretPath,
		Payload: &secretmanagerpb.SecretPayload{
			Data:       payload,
			DataCrc32C: &checksum,
		},
	}
	if _, err := s.client.AddSecretVersion(ctx, addVersionReq); err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}
	return nil
}

func (s *secretService) GetUserModelKey(ctx context.Context, userID string) (string, error) {
	accessReq := &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath(userID) + "/versions/latest",
	}
	result, err := s.client.AccessSecretVersion(ctx, accessReq)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretService) DeleteUserModelKey(ctx context.Context, userID string) error {
	deleteReq := &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretPath(userID),
	}
	if err := s.client.DeleteSecret(ctx, deleteReq); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
