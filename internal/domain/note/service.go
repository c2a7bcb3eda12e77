package note

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const maxTitleLen = 500

type Servicer interface {
	Create(ctx context.Context, ownerID string, req CreateRequest) (*Note, error)
	Update(ctx context.Context, ownerID, id string, req UpdateRequest) (*Note, error)
	Find(ctx context.Context, ownerID, id string) (*Note, error)
	List(ctx context.Context, ownerID string) ([]Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Note, error) {
	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Клиент присылает свой id, чтобы повторный push того же создания
	// оставался upsert-ом, а не дублем
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	// Клиентские метки сохраняются как есть: created_at неизменяем с момента
	// создания на устройстве, updated_at участвует в разрешении конфликтов
	now := s.now().UTC()
	createdAt, updatedAt := now, now
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}
	if req.UpdatedAt != nil {
		updatedAt = req.UpdatedAt.UTC()
	}

	n := &Note{
		ID:        id,
		OwnerID:   ownerID,
		Title:     req.Title,
		Content:   req.Content,
		AudioURL:  req.AudioURL,
		Duration:  req.Duration,
		Language:  req.Language,
		Tags:      req.Tags,
		NoteType:  req.NoteType,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	n.Normalize()

	if err := s.repo.Upsert(ctx, n); err != nil {
		return nil, fmt.Errorf("сохранение заметки: %w", err)
	}

	s.log.Debug("note created", "note_id", n.ID, "owner_id", ownerID)
	return n, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, req UpdateRequest) (*Note, error) {
	n, err := s.repo.Find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	req.Apply(n)
	if req.UpdatedAt != nil {
		n.UpdatedAt = req.UpdatedAt.UTC()
	} else {
		n.Touch(s.now().UTC())
	}

	if err := s.repo.Upsert(ctx, n); err != nil {
		return nil, fmt.Errorf("обновление заметки: %w", err)
	}

	return n, nil
}

func (s *Service) Find(ctx context.Context, ownerID, id string) (*Note, error) {
	return s.repo.Find(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Note, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Delete удаляет заметку. Отсутствующая заметка не считается ошибкой:
// повторный delete от второго экземпляра клиента - штатная ситуация.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func validateCreate(req CreateRequest) error {
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	if req.Duration != nil && *req.Duration < 0 {
		return fmt.Errorf("duration must be non-negative")
	}
	switch req.NoteType {
	case "", TypeText, TypeVoice:
	default:
		return fmt.Errorf("unknown note type: %s", req.NoteType)
	}
	return nil
}
