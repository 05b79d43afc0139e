// Command diapets es el servidor y CLI de Diapets.
//
// Usage:
//
//	diapets serve
//	diapets notify     # una pasada de recordatorios (cron externo)
//	diapets worker     # loop de recordatorios cada REMINDER_INTERVAL
//	diapets migrate

// @title Diapets API
// @version 1.0
// @description Registro de insulina y recordatorios de dosis para mascotas diabéticas.
// @BasePath /
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "diapets",
		Short:         "Diapets API and insulin reminder worker",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(workerCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
