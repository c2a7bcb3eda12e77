package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"notekeeper/internal/app/client/config"
	"notekeeper/internal/domain/note"
	"notekeeper/internal/domain/sync"
	"notekeeper/internal/domain/user"
)

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	token     string
	userID    string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  false,
			DisableKeepAlives:   false,
			MaxIdleConnsPerHost: 10,
		},
	}

	// Определяем протокол
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   baseURL,
		userAgent: "NoteKeeper-Client/1.0",
	}, nil
}

// SetCredentials устанавливает токен и id пользователя для последующих запросов
func (h *httpClient) SetCredentials(token, userID string) {
	h.token = token
	h.userID = userID
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sync.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: статус %d", sync.ErrServer, resp.StatusCode)
	}

	return nil
}

// SignUp регистрирует пользователя на сервере
func (h *httpClient) SignUp(ctx context.Context, email, password string) (*user.Identity, error) {
	return h.auth(ctx, "/api/auth/signup", email, password)
}

// SignIn аутентифицирует пользователя на сервере
func (h *httpClient) SignIn(ctx context.Context, email, password string) (*user.Identity, error) {
	return h.auth(ctx, "/api/auth/signin", email, password)
}

func (h *httpClient) auth(ctx context.Context, path, email, password string) (*user.Identity, error) {
	req := user.AuthRequest{
		Email:    email,
		Password: password,
	}

	resp, err := h.doRequest(ctx, "POST", path, req)
	if err != nil {
		return nil, err
	}

	var identity user.Identity
	if err := h.parseResponse(resp, &identity); err != nil {
		return nil, err
	}

	h.SetCredentials(identity.Token, identity.ID)
	return &identity, nil
}

// Pull забирает канонический снимок заметок владельца. Сервер не применяет
// присланные заметки, а conflicts в ответе всегда пуст.
func (h *httpClient) Pull(ctx context.Context, local []note.Note) ([]note.Note, error) {
	if local == nil {
		local = []note.Note{}
	}

	resp, err := h.doRequest(ctx, "POST", "/api/sync", sync.PullRequest{Notes: local})
	if err != nil {
		return nil, err
	}

	var data sync.PullData
	if err := h.parseResponse(resp, &data); err != nil {
		return nil, err
	}

	return data.Notes, nil
}

// PushCreate создает заметку на сервере. Повтор с тем же id безопасен:
// сервер делает upsert по id заметки.
func (h *httpClient) PushCreate(ctx context.Context, n note.Note) error {
	resp, err := h.doRequest(ctx, "POST", "/api/notes", n)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// PushUpdate обновляет заметку на сервере
func (h *httpClient) PushUpdate(ctx context.Context, n note.Note) error {
	resp, err := h.doRequest(ctx, "PATCH", "/api/notes/"+n.ID, n)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// PushDelete удаляет заметку на сервере
func (h *httpClient) PushDelete(ctx context.Context, noteID string) error {
	resp, err := h.doRequest(ctx, "DELETE", "/api/notes/"+noteID, nil)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// SyncStatus получает серверный статус синхронизации владельца
func (h *httpClient) SyncStatus(ctx context.Context) (*sync.StatusData, error) {
	resp, err := h.doRequest(ctx, "GET", "/api/sync/status", nil)
	if err != nil {
		return nil, err
	}

	var data sync.StatusData
	if err := h.parseResponse(resp, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// UploadAudio загружает аудиофайл заметки и возвращает его URL
func (h *httpClient) UploadAudio(ctx context.Context, noteID, filename string, audio io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("ошибка создания multipart-формы: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("ошибка чтения аудиофайла: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("ошибка закрытия multipart-формы: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.baseURL+"/api/notes/"+noteID+"/audio", &buf)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	h.setAuthHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sync.ErrNetwork, err)
	}

	var data sync.AudioData
	if err := h.parseResponse(resp, &data); err != nil {
		return "", err
	}

	return data.URL, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	h.setAuthHeaders(req)

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrNetwork, err)
	}

	return resp, nil
}

func (h *httpClient) setAuthHeaders(req *http.Request) {
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	if h.userID != "" {
		req.Header.Set("X-User-Id", h.userID)
	}
}

// parseResponse разворачивает конверт {success, data?, error?} и переводит
// статусы ответа в типизированные ошибки
func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"body", string(body),
	)

	var envelope sync.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return statusError(resp.StatusCode, "")
		}
		return fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		return statusError(resp.StatusCode, envelope.Error)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("ошибка парсинга данных ответа: %w", err)
		}
	}

	return nil
}

func statusError(status int, message string) error {
	var base error
	switch {
	case status == http.StatusUnauthorized:
		base = sync.ErrUnauthorized
	case status == http.StatusNotFound:
		base = sync.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		base = sync.ErrValidation
	case status >= 500:
		base = sync.ErrServer
	default:
		base = sync.ErrServer
	}

	if message == "" {
		return fmt.Errorf("%w: статус %d", base, status)
	}
	return fmt.Errorf("%w: %s", base, message)
}
