package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

const liveblocksIdentifyURL = "https://api.liveblocks.io/v2/identify-user"

// LiveblocksService mints scoped access tokens for whiteboard rooms.
type LiveblocksService interface {
	IdentifyUser(ctx context.Context, user *model.User, roomID string) (string, error)
}

type liveblocksService struct {
	secretKey  string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewLiveblocksService(secretKey string, logger zerolog.Logger) LiveblocksService {
	lg := logger.With().Str("service", "LiveblocksService").Logger()
	return &liveblocksService{
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     lg,
	}
}

type liveblocksIdentifyRequest struct {
	UserID   string            `json:"userId"`
	UserInfo map[string]string `json:"userInfo"`
}

type liveblocksIdentifyResponse struct {
	Token string `json:"token"`
}

// IdentifyUser exchanges the server secret for a client token carrying the
// user's identity. Room access itself is enforced before calling this.
func (s *liveblocksService) IdentifyUser(ctx context.Context, user *model.User, roomID string) (string, error) {
	body, err := json.Marshal(liveblocksIdentifyRequest{
		UserID: user.UserID,
		UserInfo: map[string]string{
			"name":   user.Name,
			"avatar": user.AvatarURL,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal identify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, liveblocksIdentifyURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build identify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call liveblocks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error().Int("status", resp.StatusCode).Str("room_id", roomID).Msg("Liveblocks identify failed")
		return "", fmt.Errorf("liveblocks identify returned %d: %s", resp.StatusCode, string(respBody))
	}
	var parsed liveblocksIdentifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode liveblocks response: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("liveblocks returned empty token")
	}
	return parsed.Token, nil
}
