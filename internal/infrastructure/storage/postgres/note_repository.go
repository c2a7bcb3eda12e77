package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"notekeeper/internal/domain/note"
)

type NoteRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewNoteRepository(db *Storage, log *slog.Logger) *NoteRepository {
	return &NoteRepository{
		db:  db,
		log: log,
	}
}

// Upsert вставляет или перезаписывает заметку по id. Повторный push того же
// создания от клиента не плодит дублей. Конфликт id с заметкой другого
// владельца отфильтровывается WHERE-условием и возвращается как ErrNotFound,
// а не как тихий успех: клиент не должен помечать такую заметку отправленной.
func (r *NoteRepository) Upsert(ctx context.Context, n *note.Note) error {
	tag, err := r.db.Pool().Exec(ctx, `
		INSERT INTO notes (id, owner_id, title, content, audio_url, duration,
		                   language, tags, note_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title      = EXCLUDED.title,
			content    = EXCLUDED.content,
			audio_url  = EXCLUDED.audio_url,
			duration   = EXCLUDED.duration,
			language   = EXCLUDED.language,
			tags       = EXCLUDED.tags,
			note_type  = EXCLUDED.note_type,
			updated_at = EXCLUDED.updated_at
		WHERE notes.owner_id = EXCLUDED.owner_id
	`, n.ID, n.OwnerID, n.Title, n.Content, n.AudioURL, n.Duration,
		n.Language, n.Tags, n.NoteType, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Find(ctx context.Context, ownerID, id string) (*note.Note, error) {
	var n note.Note
	err := r.db.Pool().QueryRow(ctx, `
		SELECT id, owner_id, title, content, audio_url, duration,
		       language, tags, note_type, created_at, updated_at
		FROM notes
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.AudioURL,
		&n.Duration, &n.Language, &n.Tags, &n.NoteType, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, note.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note: %w", err)
	}
	return &n, nil
}

func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT id, owner_id, title, content, audio_url, duration,
		       language, tags, note_type, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []note.Note
	for rows.Next() {
		var n note.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.AudioURL,
			&n.Duration, &n.Language, &n.Tags, &n.NoteType, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

// Delete идемпотентен: удаление отсутствующей заметки не ошибка
func (r *NoteRepository) Delete(ctx context.Context, ownerID, id string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM notes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
