// cmd/client/cmd/note/create.go
package note

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notekeeper/internal/domain/note"
)

var (
	createTitle    string
	createContent  string
	createLanguage string
	createTags     []string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать заметку",
	Long: `Создание текстовой заметки.

Заметка сохраняется локально мгновенно и отправится на сервер
при следующей синхронизации.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		req := note.CreateRequest{
			Title:    createTitle,
			Language: createLanguage,
			Tags:     createTags,
		}
		if createContent != "" {
			req.Content = &createContent
		}

		n, err := app.CreateNote(req)
		if err != nil {
			return fmt.Errorf("ошибка создания заметки: %w", err)
		}

		color.Green("Заметка создана")
		fmt.Printf("ID:        %s\n", n.ID)
		fmt.Printf("Заголовок: %s\n", n.Title)

		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVarP(&createTitle, "title", "t", "", "заголовок заметки")
	CreateCmd.Flags().StringVarP(&createContent, "content", "c", "", "текст заметки")
	CreateCmd.Flags().StringVarP(&createLanguage, "language", "l", "", "язык заметки")
	CreateCmd.Flags().StringSliceVar(&createTags, "tags", nil, "теги через запятую")
}
