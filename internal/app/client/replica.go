package client

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/user"
)

// WriteOrigin помечает источник записи в реплику. Записи, пришедшие из
// reconciliation, не должны повторно попадать в журнал изменений, поэтому
// признак передается явно через путь записи, а не через разделяемый флаг.
type WriteOrigin int

const (
	OriginLocal WriteOrigin = iota
	OriginReconciliation
)

// Replica - локальная копия коллекции заметок на устройстве.
// Полностью доступна на чтение и запись без сети.
type Replica struct {
	db *sql.DB
}

func NewReplica(path string) (*Replica, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	r := &Replica{db: db}

	if err := r.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return r, nil
}

func (r *Replica) initTables() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT,
			audio_url TEXT,
			duration REAL,
			language TEXT NOT NULL DEFAULT 'en',
			tags TEXT,
			note_type TEXT NOT NULL DEFAULT 'text',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			pushed BOOLEAN NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner_id);
		CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sync_metadata (
			owner_id TEXT PRIMARY KEY,
			last_sync_timestamp DATETIME NOT NULL
		);
	`)

	return err
}

// SaveNote - upsert заметки. Запись с origin=OriginReconciliation пришла с
// сервера и сразу помечается как pushed; локальная запись сбрасывает pushed
// только при создании, чтобы не потерять факт "заметка уже была на сервере".
func (r *Replica) SaveNote(n *note.Note, origin WriteOrigin) error {
	n.Normalize()

	tagsJSON, err := marshalTags(n.Tags)
	if err != nil {
		return fmt.Errorf("ошибка сериализации тегов: %w", err)
	}

	var exists bool
	err = r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM notes WHERE id = ?)", n.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки существования заметки: %w", err)
	}

	if exists {
		pushed := origin == OriginReconciliation
		if pushed {
			_, err = r.db.Exec(`
				UPDATE notes
				SET owner_id = ?, title = ?, content = ?, audio_url = ?, duration = ?,
				    language = ?, tags = ?, note_type = ?, created_at = ?, updated_at = ?, pushed = 1
				WHERE id = ?
			`, n.OwnerID, n.Title, n.Content, n.AudioURL, n.Duration,
				n.Language, tagsJSON, n.NoteType, fmtTime(n.CreatedAt), fmtTime(n.UpdatedAt), n.ID)
		} else {
			_, err = r.db.Exec(`
				UPDATE notes
				SET owner_id = ?, title = ?, content = ?, audio_url = ?, duration = ?,
				    language = ?, tags = ?, note_type = ?, created_at = ?, updated_at = ?
				WHERE id = ?
			`, n.OwnerID, n.Title, n.Content, n.AudioURL, n.Duration,
				n.Language, tagsJSON, n.NoteType, fmtTime(n.CreatedAt), fmtTime(n.UpdatedAt), n.ID)
		}
	} else {
		_, err = r.db.Exec(`
			INSERT INTO notes (id, owner_id, title, content, audio_url, duration,
			                   language, tags, note_type, created_at, updated_at, pushed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, n.ID, n.OwnerID, n.Title, n.Content, n.AudioURL, n.Duration,
			n.Language, tagsJSON, n.NoteType, fmtTime(n.CreatedAt), fmtTime(n.UpdatedAt),
			origin == OriginReconciliation)
	}

	if err != nil {
		return fmt.Errorf("ошибка сохранения заметки: %w", err)
	}

	return nil
}

func (r *Replica) GetNote(id string) (*note.Note, error) {
	row := r.db.QueryRow(`
		SELECT id, owner_id, title, content, audio_url, duration,
		       language, tags, note_type, created_at, updated_at
		FROM notes
		WHERE id = ?
	`, id)

	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, note.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заметки: %w", err)
	}

	return n, nil
}

func (r *Replica) ListNotes(ownerID string) ([]note.Note, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, title, content, audio_url, duration,
		       language, tags, note_type, created_at, updated_at
		FROM notes
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var notes []note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заметки: %w", err)
		}
		notes = append(notes, *n)
	}

	return notes, rows.Err()
}

func (r *Replica) DeleteNote(id string) error {
	_, err := r.db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("ошибка удаления заметки: %w", err)
	}

	return nil
}

// IsPushed сообщает, доходила ли заметка до сервера хотя бы раз.
// От этого зависит, нужен ли delete в журнале при удалении.
func (r *Replica) IsPushed(id string) (bool, error) {
	var pushed bool
	err := r.db.QueryRow("SELECT pushed FROM notes WHERE id = ?", id).Scan(&pushed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения pushed: %w", err)
	}
	return pushed, nil
}

func (r *Replica) MarkPushed(id string) error {
	_, err := r.db.Exec("UPDATE notes SET pushed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("ошибка пометки pushed: %w", err)
	}
	return nil
}

func (r *Replica) CountNotes(ownerID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM notes WHERE owner_id = ?", ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета заметок: %w", err)
	}
	return count, nil
}

// --- пользователи ---

func (r *Replica) SaveUser(u *user.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			is_admin = excluded.is_admin
	`, u.ID, u.Email, u.PasswordHash, u.IsAdmin, fmtTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return nil
}

func (r *Replica) GetUserByEmail(email string) (*user.User, error) {
	var u user.User
	var createdAt string
	err := r.db.QueryRow(`
		SELECT id, email, password_hash, is_admin, created_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// RekeyOwner атомарно переименовывает пользователя и перевешивает его
// заметки на новый id. Это именно rename, а не merge: сервер признал
// пользователя под другим id, локальная сторона подчиняется.
func (r *Replica) RekeyOwner(oldID, newID string) error {
	if oldID == newID {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE users SET id = ? WHERE id = ?", newID, oldID); err != nil {
		return fmt.Errorf("ошибка переименования пользователя: %w", err)
	}
	if _, err := tx.Exec("UPDATE notes SET owner_id = ? WHERE owner_id = ?", newID, oldID); err != nil {
		return fmt.Errorf("ошибка переноса заметок: %w", err)
	}
	if _, err := tx.Exec("UPDATE sync_metadata SET owner_id = ? WHERE owner_id = ?", newID, oldID); err != nil {
		return fmt.Errorf("ошибка переноса sync_metadata: %w", err)
	}

	return tx.Commit()
}

// --- метаданные синхронизации ---

func (r *Replica) LastSync(ownerID string) (time.Time, error) {
	var ts string
	err := r.db.QueryRow(
		"SELECT last_sync_timestamp FROM sync_metadata WHERE owner_id = ?", ownerID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка чтения sync_metadata: %w", err)
	}
	return parseTime(ts), nil
}

// SetLastSync обновляется только по завершении раунда синхронизации
func (r *Replica) SetLastSync(ownerID string, t time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_metadata (owner_id, last_sync_timestamp) VALUES (?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET last_sync_timestamp = excluded.last_sync_timestamp
	`, ownerID, fmtTime(t))
	if err != nil {
		return fmt.Errorf("ошибка записи sync_metadata: %w", err)
	}
	return nil
}

func (r *Replica) Close() error {
	return r.db.Close()
}

// --- вспомогательное ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*note.Note, error) {
	var n note.Note
	var tagsJSON sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.AudioURL, &n.Duration,
		&n.Language, &tagsJSON, &n.NoteType, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &n.Tags); err != nil {
			return nil, fmt.Errorf("ошибка парсинга тегов: %w", err)
		}
	}

	n.CreatedAt = parseTime(createdAt)
	n.UpdatedAt = parseTime(updatedAt)

	return &n, nil
}

func marshalTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.UTC()
}
