package service

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/repository"
)

// DLQService archives undeliverable messages. Two sources feed it: Pub/Sub
// dead-letter pushes and generation jobs that exhausted their retries.
type DLQService interface {
	ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error
	RecordFailure(ctx context.Context, sourceName, messageID, payload string) error
}

type dlqService struct {
	repo repository.DLQRepository
}

func NewDLQService(repo repository.DLQRepository) DLQService {
	return &dlqService{repo: repo}
}

func (s *dlqService) ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error {
	// Payload arrives base64-encoded; fall back to the raw string if it
	// does not decode.
	decodedPayload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		decodedPayload = []byte(req.Message.Data)
	}

	var attributesJSON *string
	if len(req.Message.Attributes) > 0 {
		attrBytes, err := json.Marshal(req.Message.Attributes)
		if err == nil {
			attrStr := string(attrBytes)
			attributesJSON = &attrStr
		}
	}

	dbMessage := &model.DeadLetterMessage{
		SourceName: req.Subscription,
		MessageID:  req.Message.MessageID,
		Payload:    string(decodedPayload),
		Attributes: attributesJSON,
		Status:     "unprocessed",
	}
	return s.repo.Create(ctx, dbMessage)
}

func (s *dlqService) RecordFailure(ctx context.Context, sourceName, messageID, payload string) error {
	return s.repo.Create(ctx, &model.DeadLetterMessage{
		SourceName: sourceName,
		MessageID:  messageID,
		Payload:    payload,
		Status:     "unprocessed",
	})
}
