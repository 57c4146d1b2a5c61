package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gnemet/DeckForge/internal/pptx"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pptx>",
	Short: "Print titles, bullets and pictures of a presentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slides, err := pptx.ExtractSlideContent(args[0])
		if err != nil {
			return err
		}
		return printSlides(cmd.OutOrStdout(), slides, inspectJSON)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print JSON instead of text")
}

func printSlides(w io.Writer, slides map[int]pptx.SlideData, asJSON bool) error {
	nums := make([]int, 0, len(slides))
	for n := range slides {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	if asJSON {
		ordered := make([]pptx.SlideData, 0, len(nums))
		for _, n := range nums {
			ordered = append(ordered, slides[n])
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ordered)
	}

	for _, n := range nums {
		s := slides[n]
		fmt.Fprintf(w, "Slide %d: %s\n", n, s.Title)
		for _, b := range s.Bullets() {
			fmt.Fprintf(w, "  - %s\n", b)
		}
		for _, p := range s.Pictures {
			fmt.Fprintf(w, "  [picture %s]\n", p)
		}
	}
	return nil
}
