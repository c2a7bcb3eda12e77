// cmd/client/cmd/auth/signout.go
package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"notekeeper/cmd/client/cmd/types"
	"notekeeper/internal/app/client"
)

var SignOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Выйти из учетной записи",
	Long:  `Сброс сохраненной сессии. Локальные заметки остаются на устройстве.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if err := app.SignOut(); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}

		fmt.Println("Выход выполнен.")
		return nil
	},
}
