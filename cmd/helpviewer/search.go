package main

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/session"
)

var (
	searchLimit       int
	searchJSON        bool
	searchInteractive bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the archive's pages",
	Long: `Builds the full-text index and runs a query against it. Every word of the
query must prefix-match a word on the page. With --interactive, each line read
from standard input replaces the previous query, as typing into the search box
does.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if searchInteractive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results (0 for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "read queries from standard input")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	v.StartIndexing(ctx)
	if searchInteractive {
		return runInteractive(cmd, v)
	}
	if err := v.WaitIndexed(ctx); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	result, err := v.Search(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printResult(cmd, result)
}

// runInteractive feeds stdin lines through a debounced session. Results of
// queries superseded before they finish are never printed.
func runInteractive(cmd *cobra.Command, searcher session.Searcher) error {
	s := session.New(searcher, cfg.Search.Debounce, searchLimit)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for result := range s.Results() {
			if err := printResult(cmd, result); err != nil {
				cmd.PrintErrln(err)
			}
		}
	}()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		s.Submit(scanner.Text())
	}
	// input ended: let the last query finish before closing the session
	flushErr := s.Flush(cmd.Context())
	s.Close()
	<-printed
	if flushErr != nil {
		return flushErr
	}
	return scanner.Err()
}

func printResult(cmd *cobra.Command, result *executor.QueryResult) error {
	if searchJSON {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	if len(result.Results) == 0 {
		cmd.Printf("No results for %q.\n", result.Query)
		return nil
	}
	cmd.Printf("%d result(s) for %q:\n", result.TotalHits, result.Query)
	for i, r := range result.Results {
		cmd.Printf("  [%d] %s  %s\n", i+1, r.Title, r.Path)
		if r.Snippet != "" {
			cmd.Printf("      %s\n", r.Snippet)
		}
	}
	if !result.Built {
		cmd.Println("  (index still building, results may be incomplete)")
	}
	return nil
}
