// Package types держит ключи контекста, общие для всех команд клиента
package types

type contextKey string

// ClientAppKey - ключ, под которым собранное приложение лежит в контексте команды
const ClientAppKey contextKey = "clientApp"
