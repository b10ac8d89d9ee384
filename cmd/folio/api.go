package main

import (
	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/server/endpoints"
)

func init() {
	registry := api.NewRegistry()
	registry.Register(endpoints.All(endpoints.Config{})...)
	rootCmd.AddCommand(registry.BuildCommands(newClient))
}
