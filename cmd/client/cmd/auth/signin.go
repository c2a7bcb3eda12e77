// cmd/client/cmd/auth/signin.go
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

var SignInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Войти в NoteKeeper",
	Long: `Аутентификация на сервере NoteKeeper.

После входа токен сохраняется локально для последующих операций.
Если сервер недоступен, пароль проверяется по локальной копии
и клиент продолжает работать офлайн.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		fmt.Println("=== Вход в систему ===")
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

		fmt.Println("Аутентификация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		session, err := app.SignIn(ctx, email, string(password))
		if err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		fmt.Println()
		if session.Token != "" {
			fmt.Println("Вход выполнен.")

			fmt.Println("Синхронизация данных...")
			if err := app.SyncNow(ctx); err != nil {
				fmt.Printf("Предупреждение: синхронизация не удалась: %v\n", err)
				fmt.Println("Вы можете продолжить работу, изменения отправятся позже.")
			} else {
				fmt.Println("Данные синхронизированы.")
			}
		} else {
			fmt.Println("Сервер недоступен, выполнен офлайн-вход по локальной копии.")
		}

		return nil
	},
}
