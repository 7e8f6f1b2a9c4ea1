package main

import (
	"github.com/spf13/cobra"
)

var (
	envFile    string
	serveAddr  string
	csvPath    string
	clearFirst bool
	chatFile   string

	rootCmd = &cobra.Command{
		Use:   "mobiadvisor",
		Short: "Conversational mobile phone shopping advisor",
		Long: `mobiadvisor answers phone shopping questions grounded in a phone
catalog. It serves the HTTP API and manages the catalog and vector index.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe, // cmd_serve.go
	}

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Import the phone dataset CSV into the catalog",
		RunE:  runImport, // cmd_data.go
	}

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Rebuild the product and entity vector indexes",
		RunE:  runIndex, // cmd_data.go
	}

	chatCmd = &cobra.Command{
		Use:   "chat [question...]",
		Short: "Ask the advisor from the terminal",
		Long: `Ask one question, or with no arguments read one question per line from
stdin (or --file). Turns share one conversation.`,
		RunE: runChat, // cmd_chat.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default SERVER_ADDR)")

	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&csvPath, "csv", "", "dataset path (default CATALOG_CSV_PATH)")
	importCmd.Flags().BoolVar(&clearFirst, "clear", false, "delete every phone before importing")

	rootCmd.AddCommand(indexCmd)

	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "read questions from a file instead of stdin")
}
