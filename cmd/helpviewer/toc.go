package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/toc"
)

var tocJSON bool

var tocCmd = &cobra.Command{
	Use:   "toc",
	Short: "Print the archive's table of contents",
	Long: `Prints the contents tree as the viewer's sidebar would show it. Archives
without a usable .hhc file get a flat list of their pages.`,
	Args: cobra.NoArgs,
	RunE: runTOC,
}

func init() {
	tocCmd.Flags().BoolVar(&tocJSON, "json", false, "output the tree as JSON")
	rootCmd.AddCommand(tocCmd)
}

func runTOC(cmd *cobra.Command, args []string) error {
	v, err := openArchive(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	if tocJSON {
		data, err := json.MarshalIndent(v.TOC(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal toc: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	toc.Walk(v.TOC(), func(n toc.TopicNode, depth int) bool {
		line := strings.Repeat("  ", depth) + n.Title
		if n.HasTarget() {
			line += "  " + n.Target
		}
		cmd.Println(line)
		return true
	})
	return nil
}
