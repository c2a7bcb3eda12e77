// cmd/client/cmd/auth/signup.go
package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"notekeeper/cmd/client/cmd/types"
	"notekeeper/internal/app/client"
)

var SignUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Зарегистрироваться в NoteKeeper",
	Long: `Регистрация учетной записи.

Учетная запись создается локально сразу и работает без сети.
Если сервер недоступен, регистрация на нем доиграется при первом
онлайн-входе, а все созданные за это время заметки сохранятся.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		fmt.Println("=== Регистрация ===")
		fmt.Println()

		fmt.Print("Email: ")
		var email string
		_, _ = fmt.Scanln(&email)

		fmt.Print("Пароль: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		fmt.Print("Повторите пароль: ")
		passwordConfirm, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		if string(password) != string(passwordConfirm) {
			return fmt.Errorf("пароли не совпадают")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		session, err := app.SignUp(ctx, email, string(password))
		if err != nil {
			return fmt.Errorf("ошибка регистрации: %w", err)
		}

		fmt.Println()
		if session.Token != "" {
			fmt.Println("Регистрация выполнена, сервер подтвердил учетную запись.")
		} else {
			fmt.Println("Учетная запись создана локально.")
			fmt.Println("Сервер недоступен, регистрация на нем завершится при первом онлайн-входе.")
		}

		return nil
	},
}
