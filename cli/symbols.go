package main

import (
	"debug/elf"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var symbolsAll bool

var symbolsCmd = &cobra.Command{
	Use:   "symbols <shared library>",
	Short: "List dynamic function symbols of an ELF shared object",
	Long: "List the dynamic FUNC symbols a shared object exports, the names an\n" +
		"interception library can claim. With --all, undefined imports are shown too.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := elf.Open(args[0])
		if err != nil {
			return fmt.Errorf("open elf %s: %w", args[0], err)
		}
		defer f.Close()

		symbols, err := f.DynamicSymbols()
		if err != nil {
			return fmt.Errorf("read dynamic symbols: %w", err)
		}

		names := make([]string, 0, len(symbols))
		for _, symbol := range symbols {
			if elf.ST_TYPE(symbol.Info) != elf.STT_FUNC {
				continue
			}
			defined := symbol.Section != elf.SHN_UNDEF && symbol.Value != 0
			if !defined && !symbolsAll {
				continue
			}
			marker := ""
			if !defined {
				marker = " (undefined)"
			}
			names = append(names, symbol.Name+marker)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	symbolsCmd.Flags().BoolVar(&symbolsAll, "all", false, "Include undefined (imported) symbols")
	rootCmd.AddCommand(symbolsCmd)
}
