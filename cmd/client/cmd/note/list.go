// cmd/client/cmd/note/list.go
package note

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"notekeeper/internal/domain/note"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список заметок",
	Long:  `Просмотр всех заметок текущего пользователя из локальной реплики.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		notes, err := app.ListNotes()
		if err != nil {
			return fmt.Errorf("ошибка получения списка заметок: %w", err)
		}

		switch listFormat {
		case "json":
			return printNotesJSON(notes)
		default:
			return printNotesTable(notes)
		}
	},
}

func printNotesJSON(notes []note.Note) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(notes)
}

func printNotesTable(notes []note.Note) error {
	if len(notes) == 0 {
		fmt.Println("Заметок пока нет.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tТИП\tЗАГОЛОВОК\tОБНОВЛЕНА")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			n.ID, n.NoteType, n.Title, n.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func init() {
	ListCmd.Flags().StringVar(&listFormat, "format", "table", "формат вывода: table, json")
}
