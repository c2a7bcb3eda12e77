package health

import "notekeeper/internal/app/server/api/http/envelope"

type Input struct{}

type Output struct {
	Body envelope.Envelope
}

// Response тело поля data ответа health-эндпоинта
type Response struct {
	Status string `json:"status" example:"ok" doc:"Health status of the service"`
}
