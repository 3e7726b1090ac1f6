// Package main provides a CLI for inspecting PDFs with the same access layer
// the MCP server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/pdf-reader-mcp/internal/convert"
	"github.com/bull/pdf-reader-mcp/internal/reader"
)

var rootCmd = &cobra.Command{
	Use:   "pdfread",
	Short: "PDF inspection tool",
	Long:  "CLI for reading PDF metadata, sections, pages and search results",
}

var infoCmd = &cobra.Command{
	Use:   "info <file.pdf>",
	Short: "Show metadata and the table of contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var pagesCmd = &cobra.Command{
	Use:   "pages <file.pdf> <start> [end]",
	Short: "Print the text of a page range (1-based, inclusive, max 10 pages)",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runPages,
}

var sectionCmd = &cobra.Command{
	Use:   "section <file.pdf> <name>",
	Short: "Print a section resolved against the table of contents",
	Args:  cobra.ExactArgs(2),
	RunE:  runSection,
}

var searchCmd = &cobra.Command{
	Use:   "search <file.pdf> <query>",
	Short: "Search the document text",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

var convertCmd = &cobra.Command{
	Use:   "convert <file.md>",
	Short: "Convert a markdown file to a sibling PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var maxHits int

func init() {
	searchCmd.Flags().IntVar(&maxHits, "max-hits", 10, "maximum hits to print")
	rootCmd.AddCommand(infoCmd, pagesCmd, sectionCmd, searchCmd, convertCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newService() (*reader.Service, error) {
	return reader.New(reader.Config{})
}

func runInfo(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	info, err := svc.Info(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Path:    %s\n", info.Path)
	fmt.Printf("Pages:   %d\n", info.Pages)
	if info.Metadata.Title != "" {
		fmt.Printf("Title:   %s\n", info.Metadata.Title)
	}
	if info.Metadata.Author != "" {
		fmt.Printf("Author:  %s\n", info.Metadata.Author)
	}
	if info.Metadata.Creator != "" {
		fmt.Printf("Creator: %s\n", info.Metadata.Creator)
	}
	if !info.HasText {
		fmt.Println("Warning: no extractable text layer (scanned document?)")
	}

	fmt.Println()
	fmt.Println("Table of contents:")
	for _, e := range info.TOC {
		indent := ""
		for i := 0; i < e.Level; i++ {
			indent += "  "
		}
		fmt.Printf("  %s%s (p.%d)\n", indent, e.Title, e.StartPage+1)
	}
	return nil
}

func runPages(cmd *cobra.Command, args []string) error {
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid start page: %s", args[1])
	}
	end := start
	if len(args) == 3 {
		end, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid end page: %s", args[2])
		}
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	records, err := svc.ReadPages(context.Background(), args[0], start-1, end)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("--- page %d ---\n%s\n", r.Page+1, r.Text)
	}
	return nil
}

func runSection(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	section, err := svc.ReadSection(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Section: %s (pages %d-%d, score %.2f)\n",
		section.Title, section.Start+1, section.End, section.Score)
	if section.Truncated {
		fmt.Printf("Note: output truncated to %d pages\n", len(section.Pages))
	}
	for _, r := range section.Pages {
		fmt.Printf("--- page %d ---\n%s\n", r.Page+1, r.Text)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Search(context.Background(), args[0], args[1], maxHits)
	if err != nil {
		return err
	}

	fmt.Printf("%d hit(s) across %d page(s)\n", result.Stats.TotalHits, result.Stats.Pages)
	for _, h := range result.Hits {
		fmt.Printf("  p.%d [%.1f] %s\n", h.Page+1, h.Score, h.Snippet)
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	out, err := convert.ConvertFile(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
