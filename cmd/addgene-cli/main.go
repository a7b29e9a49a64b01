package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/plasmidtools/addgene-scraper/internal/config"
	"github.com/plasmidtools/addgene-scraper/internal/engine"
	"github.com/plasmidtools/addgene-scraper/internal/filters"
	"github.com/plasmidtools/addgene-scraper/internal/logging"
	"github.com/plasmidtools/addgene-scraper/internal/models"
	"github.com/plasmidtools/addgene-scraper/internal/scraper"
)

var (
	flagPageSize   int
	flagPageNumber int
	flagFilters    = map[string]*string{}
	flagFormat     string
	flagDir        string
)

var rootCmd = &cobra.Command{
	Use:   "addgene-cli",
	Short: "Search the Addgene plasmid catalog and download sequence files",
	Long: `addgene-cli scrapes the Addgene plasmid repository, which has no public
API. Searches run through an isolated crawl engine; downloads are plain
file transfers once a sequence URL has been resolved.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Short:   "Search plasmids by free text and filters",
	Example: "  addgene-cli search pLKO.1 --expression mammalian --popularity high",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query string
		if len(args) == 1 {
			query = args[0]
		}

		svc := newService()
		result, err := svc.Search(cmd.Context(), engine.SearchRequest{
			Query:      query,
			PageSize:   flagPageSize,
			PageNumber: flagPageNumber,
			Filters:    filterSet(),
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List the most requested plasmids",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		result, err := svc.Search(cmd.Context(), engine.SearchRequest{
			PageSize:   flagPageSize,
			PageNumber: 1,
			Filters:    filters.Set{Popularity: "high"},
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var sequenceInfoCmd = &cobra.Command{
	Use:     "sequence-info <plasmid-id>",
	Short:   "Check whether a sequence file is downloadable for a plasmid",
	Example: "  addgene-cli sequence-info 12345 --format genbank",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, format, err := sequenceArgs(args)
		if err != nil {
			return err
		}

		svc := newService()
		info, err := svc.SequenceInfo(cmd.Context(), id, format)
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

var downloadCmd = &cobra.Command{
	Use:     "download <plasmid-id>",
	Short:   "Download a plasmid sequence file",
	Example: "  addgene-cli download 12345 --format snapgene --dir ./downloads",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, format, err := sequenceArgs(args)
		if err != nil {
			return err
		}

		svc := newService()
		result := svc.Download(cmd.Context(), id, format, flagDir)
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("download failed: %s", result.ErrorMessage)
		}
		return nil
	},
}

func newService() *scraper.Service {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, "text")
	return scraper.NewService(cfg.Scraper, logger)
}

func filterSet() filters.Set {
	return filters.Set{
		Expression:          *flagFilters["expression"],
		VectorTypes:         *flagFilters["vector_types"],
		Species:             *flagFilters["species"],
		PlasmidType:         *flagFilters["plasmid_type"],
		ResistanceMarker:    *flagFilters["resistance_marker"],
		BacterialResistance: *flagFilters["bacterial_resistance"],
		Popularity:          *flagFilters["popularity"],
	}
}

func sequenceArgs(args []string) (int, models.SequenceFormat, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("plasmid id must be a positive integer, got %q", args[0])
	}
	format, err := models.ParseSequenceFormat(flagFormat)
	if err != nil {
		return 0, "", err
	}
	return id, format, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	searchCmd.Flags().IntVar(&flagPageSize, "page-size", 50, "results per page (max 50)")
	searchCmd.Flags().IntVar(&flagPageNumber, "page", 1, "1-based page number")
	for _, category := range filters.Categories {
		name := string(category)
		flagFilters[name] = searchCmd.Flags().String(name, "", "filter token ("+name+")")
	}

	popularCmd.Flags().IntVar(&flagPageSize, "page-size", 20, "results per page (max 50)")

	sequenceInfoCmd.Flags().StringVar(&flagFormat, "format", "snapgene", "sequence format: snapgene, genbank or fasta")
	downloadCmd.Flags().StringVar(&flagFormat, "format", "snapgene", "sequence format: snapgene, genbank or fasta")
	downloadCmd.Flags().StringVar(&flagDir, "dir", "downloads", "destination directory")

	rootCmd.AddCommand(searchCmd, popularCmd, sequenceInfoCmd, downloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
