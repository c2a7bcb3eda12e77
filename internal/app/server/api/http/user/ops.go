package user

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) signUpOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-signup",
		Method:      http.MethodPost,
		Path:        "/api/auth/signup",
		Summary:     "Регистрация пользователя",
		Description: "Создает пользователя и выдает токен. Повторная регистрация с тем же email и паролем возвращает существующего пользователя: так клиент доигрывает офлайн-регистрацию.",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) signInOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-signin",
		Method:      http.MethodPost,
		Path:        "/api/auth/signin",
		Summary:     "Вход пользователя",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}
