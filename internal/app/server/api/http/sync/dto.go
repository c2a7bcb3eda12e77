package sync

import (
	"notekeeper/internal/app/server/api/http/envelope"
	"notekeeper/internal/domain/sync"
)

type output struct {
	Status int
	Body   envelope.Envelope
}

type pullInput struct {
	Body sync.PullRequest
}
