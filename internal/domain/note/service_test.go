package note

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, n *Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockRepository) Find(ctx context.Context, ownerID, id string) (*Note, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerID string) ([]Note, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Note), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func newTestService(repo Repository) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, log)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("GeneratesIDWhenMissing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Return(nil)

		svc := newTestService(repo)
		n, err := svc.Create(ctx, "owner1", CreateRequest{Title: "Заметка"})

		assert.NoError(t, err)
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, "owner1", n.OwnerID)
		assert.Equal(t, TypeText, n.NoteType)
		assert.Equal(t, DefaultLanguage, n.Language)
		repo.AssertExpectations(t)
	})

	t.Run("KeepsClientID", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Return(nil)

		svc := newTestService(repo)
		n, err := svc.Create(ctx, "owner1", CreateRequest{ID: "client-id", Title: "Заметка"})

		assert.NoError(t, err)
		assert.Equal(t, "client-id", n.ID)
	})

	t.Run("KeepsClientTimestamps", func(t *testing.T) {
		var saved *Note
		repo := new(MockRepository)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*Note)
		}).Return(nil)

		svc := newTestService(repo)
		createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		updatedAt := time.Date(2025, 3, 2, 10, 30, 0, 0, time.UTC)
		_, err := svc.Create(ctx, "owner1", CreateRequest{
			ID:        "n1",
			Title:     "Заметка",
			CreatedAt: &createdAt,
			UpdatedAt: &updatedAt,
		})

		// метки фиксируют момент мутации на устройстве, не момент прихода
		assert.NoError(t, err)
		assert.True(t, saved.CreatedAt.Equal(createdAt))
		assert.True(t, saved.UpdatedAt.Equal(updatedAt))
	})

	t.Run("StampsArrivalWhenTimestampsMissing", func(t *testing.T) {
		var saved *Note
		repo := new(MockRepository)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*Note)
		}).Return(nil)

		svc := newTestService(repo)
		_, err := svc.Create(ctx, "owner1", CreateRequest{Title: "Заметка"})

		assert.NoError(t, err)
		assert.True(t, saved.CreatedAt.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("DefaultTitle", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Return(nil)

		svc := newTestService(repo)
		n, err := svc.Create(ctx, "owner1", CreateRequest{})

		assert.NoError(t, err)
		assert.Equal(t, DefaultTitle, n.Title)
	})

	t.Run("ForeignIDCollisionSurfaces", func(t *testing.T) {
		// хранилище отказало в upsert: id занят заметкой другого владельца
		repo := new(MockRepository)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Return(ErrNotFound)

		svc := newTestService(repo)
		_, err := svc.Create(ctx, "owner1", CreateRequest{ID: "stolen-id", Title: "Заметка"})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RejectsLongTitle", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		_, err := svc.Create(ctx, "owner1", CreateRequest{Title: strings.Repeat("x", maxTitleLen+1)})

		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("RejectsNegativeDuration", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		bad := -1.5
		_, err := svc.Create(ctx, "owner1", CreateRequest{Duration: &bad})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo)

		_, err := svc.Create(ctx, "owner1", CreateRequest{NoteType: "video"})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialUpdate", func(t *testing.T) {
		content := "старое содержимое"
		existing := &Note{
			ID:        "n1",
			OwnerID:   "owner1",
			Title:     "Старый заголовок",
			Content:   &content,
			Language:  "ru",
			NoteType:  TypeText,
			CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		}

		repo := new(MockRepository)
		repo.On("Find", ctx, "owner1", "n1").Return(existing, nil)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Return(nil)

		svc := newTestService(repo)
		newTitle := "Новый заголовок"
		n, err := svc.Update(ctx, "owner1", "n1", UpdateRequest{Title: &newTitle})

		assert.NoError(t, err)
		assert.Equal(t, "Новый заголовок", n.Title)
		// не переданные поля не тронуты
		assert.Equal(t, "старое содержимое", *n.Content)
		// updated_at продвинут
		assert.True(t, n.UpdatedAt.After(n.CreatedAt))
	})

	t.Run("KeepsClientUpdatedAt", func(t *testing.T) {
		existing := &Note{
			ID:        "n1",
			OwnerID:   "owner1",
			Title:     "Заметка",
			Language:  "ru",
			NoteType:  TypeText,
			CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		}

		var saved *Note
		repo := new(MockRepository)
		repo.On("Find", ctx, "owner1", "n1").Return(existing, nil)
		repo.On("Upsert", ctx, mock.AnythingOfType("*note.Note")).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*Note)
		}).Return(nil)

		svc := newTestService(repo)
		clientStamp := time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC)
		_, err := svc.Update(ctx, "owner1", "n1", UpdateRequest{UpdatedAt: &clientStamp})

		// updated_at мутации на устройстве не замещается временем прихода
		assert.NoError(t, err)
		assert.True(t, saved.UpdatedAt.Equal(clientStamp))
		// created_at неизменяем
		assert.True(t, saved.CreatedAt.Equal(existing.CreatedAt))
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Find", ctx, "owner1", "missing").Return(nil, ErrNotFound)

		svc := newTestService(repo)
		_, err := svc.Update(ctx, "owner1", "missing", UpdateRequest{})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()

	repo := new(MockRepository)
	repo.On("Delete", ctx, "owner1", "n1").Return(nil)

	svc := newTestService(repo)
	assert.NoError(t, svc.Delete(ctx, "owner1", "n1"))
	repo.AssertExpectations(t)
}

func TestServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsOwnerNotes", func(t *testing.T) {
		notes := []Note{{ID: "n1"}, {ID: "n2"}}
		repo := new(MockRepository)
		repo.On("ListByOwner", ctx, "owner1").Return(notes, nil)

		svc := newTestService(repo)
		got, err := svc.List(ctx, "owner1")

		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListByOwner", ctx, "owner1").Return(nil, errors.New("db down"))

		svc := newTestService(repo)
		_, err := svc.List(ctx, "owner1")

		assert.Error(t, err)
	})
}
