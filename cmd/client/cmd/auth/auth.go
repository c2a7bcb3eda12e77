package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd - родительская команда для всех операций с пользователем
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Управление пользователем",
	Long:  `Регистрация, вход и выход из учетной записи.`,
}
