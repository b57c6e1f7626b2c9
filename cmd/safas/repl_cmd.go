package main

import (
	"github.com/spf13/cobra"

	"github.com/safas-lang/safas/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive SAFAS shell",
	Run: func(cmd *cobra.Command, args []string) {
		repl.Run("safas> ")
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
