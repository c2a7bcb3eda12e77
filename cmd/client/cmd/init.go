// cmd/client/cmd/init.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"notekeeper/cmd/client/cmd/auth"
	"notekeeper/cmd/client/cmd/note"
	"notekeeper/cmd/client/cmd/sync"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент NoteKeeper",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает директорию данных и локальную реплику
	2. Проверяет соединение с сервером

Работать можно и без сервера: заметки сохраняются локально,
а синхронизация начнется после первого успешного входа.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("=== Инициализация NoteKeeper ===")
		fmt.Println()

		// Реплика и журнал уже созданы при сборке приложения,
		// осталось проверить сервер
		fmt.Println("Проверка соединения с сервером...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		if err := app.SyncNow(ctx); err != nil {
			fmt.Printf("Сервер пока недоступен: %v\n", err)
			fmt.Println("Вы можете работать в офлайн-режиме, синхронизация начнется позже.")
		} else {
			fmt.Println("Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("Инициализация завершена.")
		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Зарегистрируйтесь: notekeeper auth signup")
		fmt.Println("2. Или войдите: notekeeper auth signin")
		fmt.Println("3. Создайте первую заметку: notekeeper note create")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	// Команды аутентификации
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.SignUpCmd)
	auth.AuthCmd.AddCommand(auth.SignInCmd)
	auth.AuthCmd.AddCommand(auth.SignOutCmd)

	// Команды работы с заметками
	rootCmd.AddCommand(note.NoteCmd)
	note.NoteCmd.AddCommand(note.CreateCmd)
	note.NoteCmd.AddCommand(note.GetCmd)
	note.NoteCmd.AddCommand(note.ListCmd)
	note.NoteCmd.AddCommand(note.UpdateCmd)
	note.NoteCmd.AddCommand(note.DeleteCmd)
	note.NoteCmd.AddCommand(note.AudioCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
