package main

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/core"
	apphttp "tally/internal/http"
	"tally/internal/services"
	"tally/internal/storage"
	"tally/internal/store"
	"tally/internal/store/memory"
)

// sourceFlags select where expenses are read from.
type sourceFlags struct {
	input string
	db    string
	user  string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.input, "input", "i", "", "JSON file with an array of expenses")
	cmd.Flags().StringVar(&s.db, "db", "", "SQLite database path (default from config file)")
	cmd.Flags().StringVarP(&s.user, "user", "u", "", "User whose expenses are read (default from config file)")
	cmd.MarkFlagsMutuallyExclusive("input", "db")
}

// filterFlags mirror the API's filter query parameters.
type filterFlags struct {
	category string
	start    string
	end      string
	min      float64
	max      float64
	search   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Only this category")
	cmd.Flags().StringVar(&f.start, "start", "", "Earliest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Latest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&f.min, "min", 0, "Minimum amount, inclusive")
	cmd.Flags().Float64Var(&f.max, "max", 0, "Maximum amount, inclusive")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Case-insensitive description substring")
}

// options validates the flags the same way the API validates its query.
func (f *filterFlags) options() (core.FilterOptions, error) {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("category", f.category)
	set("startDate", f.start)
	set("endDate", f.end)
	set("search", f.search)
	if f.min != 0 {
		q.Set("minAmount", strconv.FormatFloat(f.min, 'f', -1, 64))
	}
	if f.max != 0 {
		q.Set("maxAmount", strconv.FormatFloat(f.max, 'f', -1, 64))
	}
	return apphttp.ParseFilter(q)
}

// openService opens the selected source behind an ExpenseService. The
// caller closes the service.
func (a *app) openService(s sourceFlags) (*services.ExpenseService, string, error) {
	user := s.user
	if user == "" {
		user = a.file.Source.UserID
	}
	if user == "" {
		user = memory.DefaultUser
	}

	var (
		st  store.ExpenseStore
		err error
	)
	db := s.db
	if db == "" && s.input == "" {
		db = a.file.Source.DBPath
	}
	switch {
	case s.input != "":
		st, err = memory.NewFromFile(s.input)
	case db != "":
		st, err = storage.NewSQLiteRepository(db, a.logger)
	default:
		err = errors.New("no expense source: pass --input or --db, or set source.db_path in the config file")
	}
	if err != nil {
		return nil, "", err
	}
	return services.NewExpenseService(st, a.logger), user, nil
}
