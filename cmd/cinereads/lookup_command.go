package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cinereads/internal/logging"
	"cinereads/internal/metadata"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var author string
	var asJSON bool
	var refresh bool

	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Resolve a book against the Hardcover catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stack, err := buildLookupStack(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer stack.close()

			query := strings.Join(args, " ")
			if refresh {
				stack.metadata.Invalidate(query)
			}

			var book *metadata.Book
			if strings.TrimSpace(author) != "" {
				book, err = stack.metadata.LookupTitleAuthor(cmd.Context(), query, author)
			} else {
				book, err = stack.metadata.Lookup(cmd.Context(), query)
			}
			out := cmd.OutOrStdout()
			if metadata.IsNotFound(err) {
				fmt.Fprintf(out, "No confident match for %q\n", query)
				return nil
			}
			if err != nil {
				return fmt.Errorf("lookup: %w", err)
			}

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(book)
			}

			rows := [][]string{
				{"Title", book.Title},
				{"Author", strings.Join(book.Authors, ", ")},
				{"Rating", fmt.Sprintf("%.2f (%s ratings)", book.Rating, humanize.Comma(book.RatingsCount))},
				{"Genres", strings.Join(book.Genres, ", ")},
				{"Match score", strconv.FormatFloat(book.MatchScore, 'f', 1, 64)},
			}
			if book.ReleaseYear != 0 {
				rows = append(rows, []string{"Released", strconv.Itoa(book.ReleaseYear)})
			}
			if book.URL != "" {
				rows = append(rows, []string{"URL", book.URL})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "Author to disambiguate the title")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the resolved book as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop any cached entry before looking up")
	return cmd
}
