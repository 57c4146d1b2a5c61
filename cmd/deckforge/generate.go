package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	genTopic  string
	genSlides int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build one presentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.builder.Build(cmd.Context(), genTopic, genSlides)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&genTopic, "topic", "t", "", "Presentation topic")
	generateCmd.Flags().IntVarP(&genSlides, "slides", "n", 3, "Number of slides")
	_ = generateCmd.MarkFlagRequired("topic")
}
