// cmd/client/cmd/note/audio.go
package note

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var AudioCmd = &cobra.Command{
	Use:   "audio <id> <file>",
	Short: "Прикрепить аудиофайл к заметке",
	Long: `Загрузка аудиофайла на сервер и привязка его к заметке.

Единственная операция клиента, требующая сети: файл уходит на сервер
сразу, а не через журнал изменений.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("ошибка открытия файла: %w", err)
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		n, err := app.AttachAudio(ctx, args[0], filepath.Base(args[1]), f)
		if err != nil {
			return fmt.Errorf("ошибка загрузки аудио: %w", err)
		}

		color.Green("Аудио загружено")
		if n.AudioURL != nil {
			fmt.Printf("URL: %s\n", *n.AudioURL)
		}

		return nil
	},
}
