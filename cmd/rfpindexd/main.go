package main

import (
	"fmt"
	"os"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rfpindexd",
		Short: "AutoRFP document indexing daemon",
		Long:  "AutoRFP daemon for running the document chunk indexing API and worker",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IndexChunkCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
