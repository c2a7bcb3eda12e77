// cmd/client/cmd/note/update.go
package note

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notekeeper/internal/domain/note"
)

var (
	updateTitle    string
	updateContent  string
	updateLanguage string
	updateTags     []string
)

var UpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Обновить заметку",
	Long: `Частичное обновление заметки: меняются только переданные флагами поля.

Обновление применяется локально мгновенно и отправится на сервер
при следующей синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		var req note.UpdateRequest
		if cmd.Flags().Changed("title") {
			req.Title = &updateTitle
		}
		if cmd.Flags().Changed("content") {
			req.Content = &updateContent
		}
		if cmd.Flags().Changed("language") {
			req.Language = &updateLanguage
		}
		if cmd.Flags().Changed("tags") {
			req.Tags = &updateTags
		}

		n, err := app.UpdateNote(args[0], req)
		if err != nil {
			return fmt.Errorf("ошибка обновления заметки: %w", err)
		}

		color.Green("Заметка обновлена")
		fmt.Printf("ID:        %s\n", n.ID)
		fmt.Printf("Заголовок: %s\n", n.Title)

		return nil
	},
}

func init() {
	UpdateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "новый заголовок")
	UpdateCmd.Flags().StringVarP(&updateContent, "content", "c", "", "новый текст")
	UpdateCmd.Flags().StringVarP(&updateLanguage, "language", "l", "", "новый язык")
	UpdateCmd.Flags().StringSliceVar(&updateTags, "tags", nil, "новые теги")
}
