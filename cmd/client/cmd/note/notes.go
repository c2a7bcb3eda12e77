package note

import (
	"fmt"

	"github.com/spf13/cobra"

	"notekeeper/cmd/client/cmd/types"
	"notekeeper/internal/app/client"
)

// NoteCmd - родительская команда для всех операций с заметками
var NoteCmd = &cobra.Command{
	Use:   "note",
	Short: "Управление заметками",
	Long:  `Создание, просмотр, обновление и удаление заметок.`,
}

func appFromContext(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}
