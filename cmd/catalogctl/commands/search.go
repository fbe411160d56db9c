package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yigit/coursecake/internal/app/services"
)

var searchFlags struct {
	university  string
	term        string
	filters     []string
	limit       uint64
	offset      uint64
	classes     bool
	withClasses bool
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.university, "university", "u", "", "University to search.")
	f.StringVarP(&searchFlags.term, "term", "t", "", "Only this term.")
	f.StringArrayVar(&searchFlags.filters, "filter", nil, "Filter as field[operator]=value, repeatable. Operators: equals, not, like, notlike.")
	f.Uint64Var(&searchFlags.limit, "limit", 0, "Maximum rows, 0 for all.")
	f.Uint64Var(&searchFlags.offset, "offset", 0, "Rows to skip.")
	f.BoolVar(&searchFlags.classes, "classes", false, "Search classes instead of courses.")
	f.BoolVar(&searchFlags.withClasses, "with-classes", false, "Include the classes of every course.")
	_ = searchCmd.MarkFlagRequired("university")
	searchCmd.MarkFlagsMutuallyExclusive("classes", "with-classes")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search --university <name> [--term <term>] [--filter 'title[like]=intro']...",
	Short: "Prints matching courses or classes as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(searchFlags.filters)
		if err != nil {
			return err
		}
		req := services.SearchRequest{
			University:  searchFlags.university,
			TermID:      searchFlags.term,
			Filters:     filters,
			Limit:       searchFlags.limit,
			Offset:      searchFlags.offset,
			WithClasses: searchFlags.withClasses,
		}

		ctx := cmd.Context()
		catalog, pool, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if searchFlags.classes {
			classes, err := catalog.SearchClasses(ctx, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, classes)
		}
		courses, err := catalog.SearchCourses(ctx, req)
		if err != nil {
			return err
		}
		return writeJSON(cmd, courses)
	},
}

// parseFilters splits "key=value" pairs on the first '='
func parseFilters(pairs []string) (map[string]string, error) {
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("filter %q is not of the form field[operator]=value", pair)
		}
		if _, dup := filters[key]; dup {
			return nil, fmt.Errorf("filter %q given more than once", key)
		}
		filters[key] = value
	}
	return filters, nil
}
