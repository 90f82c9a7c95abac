package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/interpose/hookgen"
)

var (
	genDescriptor string
	genOutput     string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate cgo entry-point glue from a hook descriptor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptor, err := os.Open(genDescriptor)
		if err != nil {
			return fmt.Errorf("open descriptor: %w", err)
		}
		defer descriptor.Close()

		file, err := hookgen.Parse(descriptor)
		if err != nil {
			return err
		}

		var out bytes.Buffer
		if err := hookgen.Generate(&out, file); err != nil {
			return err
		}

		if genOutput == "-" {
			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		}
		if err := os.WriteFile(genOutput, out.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", genOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d symbols)\n", genOutput, len(file.Symbols))
		return nil
	},
}

func init() {
	genCmd.Flags().StringVarP(&genDescriptor, "descriptor", "d", "hooks.yaml", "Hook descriptor file")
	genCmd.Flags().StringVarP(&genOutput, "output", "o", "hooks_gen.go", "Output file, - for stdout")
	rootCmd.AddCommand(genCmd)
}
