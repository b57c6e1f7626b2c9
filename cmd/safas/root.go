package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorFlag string
)

// rootCmd wires a persistent --config
// flag loaded through viper, plus a --color flag threaded down to the
// diagnostic renderer.
var rootCmd = &cobra.Command{
	Use:   "safas",
	Short: "SAFAS — a scriptable bit-level assembler",
	Long: `SAFAS is a homoiconic, S-expression scripting language for writing binary
assemblers. Programs are SAFAS source files whose forms emit bytes and bits
to an output cursor; CPU instruction sets are written as ordinary SAFAS
libraries of syntaxes rather than built into the tool.

Getting started:
  safas run program.safas -o out.bin   Assemble a file to a binary
  safas run -e '(d 1u8 2u8)'           Assemble an inline expression
  safas repl                           Start an interactive shell

More information:
  Standard library: (import "stdlib/bytes"), (import "stdlib/6502")`,
}

// Execute runs the root command, exiting non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.safas.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored diagnostic output: "auto", "always", or "never".`)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".safas")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
