package user

import (
	"notekeeper/internal/app/server/api/http/envelope"
	"notekeeper/internal/domain/user"
)

type output struct {
	Status int
	Body   envelope.Envelope
}

type authInput struct {
	Body user.AuthRequest
}
