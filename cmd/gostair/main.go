package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; the environment always wins
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gostair",
		Short: "2AFC adaptive staircase experiment controller",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
