// cmd/client/cmd/note/get.go
package note

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var GetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Показать заметку",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		n, err := app.GetNote(args[0])
		if err != nil {
			return fmt.Errorf("ошибка получения заметки: %w", err)
		}

		color.Cyan(n.Title)
		fmt.Printf("ID:        %s\n", n.ID)
		fmt.Printf("Тип:       %s\n", n.NoteType)
		fmt.Printf("Язык:      %s\n", n.Language)
		if len(n.Tags) > 0 {
			fmt.Printf("Теги:      %s\n", strings.Join(n.Tags, ", "))
		}
		if n.AudioURL != nil {
			fmt.Printf("Аудио:     %s\n", *n.AudioURL)
		}
		if n.Duration != nil {
			fmt.Printf("Длительность: %.1f c\n", *n.Duration)
		}
		fmt.Printf("Создана:   %s\n", n.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Обновлена: %s\n", n.UpdatedAt.Format("2006-01-02 15:04:05"))
		if n.Content != nil {
			fmt.Println()
			fmt.Println(*n.Content)
		}

		return nil
	},
}
