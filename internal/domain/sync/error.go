package sync

import "errors"

// Типизированные ошибки удаленного хранилища. Оркестратор ветвится по ним:
// Unauthorized обрывает слив очереди, NotFound/Validation выбрасывают элемент,
// Server/Network возвращают его в очередь.
var (
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrNotFound     = errors.New("remote: not found")
	ErrServer       = errors.New("remote: server error")
	ErrNetwork      = errors.New("remote: network error")
	ErrValidation   = errors.New("remote: validation error")
)
