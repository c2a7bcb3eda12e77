package note

import (
	"context"
)

// Repository интерфейс серверного хранилища заметок.
// Upsert обязан быть идемпотентным по id: два клиента одного устройства
// могут отправить одну и ту же запись дважды.
type Repository interface {
	Upsert(ctx context.Context, n *Note) error
	Find(ctx context.Context, ownerID, id string) (*Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}
