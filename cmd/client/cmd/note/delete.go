// cmd/client/cmd/note/delete.go
package note

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить заметку",
	Long: `Удаление заметки. Локально заметка исчезает сразу; на сервере
удаление произойдет при следующей синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		if err := app.DeleteNote(args[0]); err != nil {
			return fmt.Errorf("ошибка удаления заметки: %w", err)
		}

		color.Green("Заметка удалена")
		return nil
	},
}
