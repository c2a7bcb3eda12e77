// Package envelope описывает единый конверт ответов API:
// {"success": true, "data": ...} либо {"success": false, "error": "..."}.
package envelope

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
