package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notekeeper/cmd/client/cmd/types"
	"notekeeper/internal/app/client"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Синхронизация заметок между локальной репликой и сервером.

Сначала клиент забирает каноническое состояние с сервера, затем
отправляет накопленные в журнале локальные изменения.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if syncStatus {
			return showSyncStatus(app)
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	if !app.IsAuthenticated() {
		return fmt.Errorf("требуется аутентификация. Выполните: notekeeper auth signin")
	}

	fmt.Println("Синхронизация...")
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := app.SyncNow(ctx); err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	st := app.SyncStatus()

	color.Green("Синхронизация завершена за %v", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Изменений в очереди: %d\n", st.PendingChanges)

	return nil
}

func showSyncStatus(app *client.App) error {
	st := app.SyncStatus()

	fmt.Println("=== Статус синхронизации ===")
	if !st.LastSync.IsZero() {
		fmt.Printf("Последняя синхронизация: %s\n", st.LastSync.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Последняя синхронизация: никогда")
	}
	fmt.Printf("Изменений в очереди:     %d\n", st.PendingChanges)
	if st.IsSyncing {
		fmt.Println("Сейчас идет синхронизация")
	}

	if app.IsAuthenticated() {
		s := app.CurrentSession()
		fmt.Printf("Пользователь:            %s\n", s.Email)
		if s.Token == "" {
			color.Yellow("Вход выполнен офлайн, токен отсутствует")
		}
	} else {
		color.Yellow("Вход не выполнен")
	}

	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
