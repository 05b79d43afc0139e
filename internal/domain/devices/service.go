package devices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"diapets/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("push token not found")
)

const maxTokenLen = 4096

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"module": "devices"}),
		now:  time.Now,
	}
}

// Register es find-or-create: repetir el mismo token no crea duplicados.
// created indica si el token es nuevo.
func (s *Service) Register(ctx context.Context, userID, token string) (pt PushToken, created bool, err error) {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" || len(token) > maxTokenLen {
		return PushToken{}, false, ErrInvalidInput
	}

	existing, err := s.repo.Find(ctx, userID, token)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return PushToken{}, false, err
	}

	pt = PushToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, pt); err != nil {
		return PushToken{}, false, err
	}

	s.log.Info("push token registered", map[string]any{"user_id": userID, "token_id": pt.ID})
	return pt, true, nil
}

func (s *Service) Unregister(ctx context.Context, userID, token string) error {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, userID, token)
}

// ListByUsers devuelve los tokens de todos los usuarios indicados.
func (s *Service) ListByUsers(ctx context.Context, userIDs []string) ([]PushToken, error) {
	if len(userIDs) == 0 {
		return []PushToken{}, nil
	}
	return s.repo.ListByUsers(ctx, userIDs)
}
