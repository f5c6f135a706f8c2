package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"juparc/internal/core/app"
	"juparc/internal/core/errors"
	"juparc/internal/data/query"
	"juparc/internal/engine/aggregate"
	"juparc/internal/notebook"
	"juparc/internal/shared/util"
	"juparc/internal/ui/report"

	"github.com/spf13/cobra"
)

const notebooksUsage = "Notebook files. If empty, records are read as JSON from stdin"

func newListCommand(rt *runtime) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notebook paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := app.Glob(pattern)
			if err != nil {
				return errors.Wrap(err, errors.CodeValidationError, "list notebooks")
			}
			return report.WriteJSON(cmd.OutOrStdout(), paths)
		},
	}
	cmd.Flags().StringVarP(&pattern, "notebooks", "n", "**/*.ipynb", "Notebook glob pattern")
	return cmd
}

func newListReqCommand(rt *runtime) *cobra.Command {
	patterns := map[string]*string{}
	cmd := &cobra.Command{
		Use:   "listreq",
		Short: "List requirement files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := make(map[string]string, len(patterns))
			for name, p := range patterns {
				values[name] = *p
			}
			found, err := app.ListRequirements(values)
			if err != nil {
				return errors.Wrap(err, errors.CodeValidationError, "list requirement files")
			}
			return report.WriteJSON(cmd.OutOrStdout(), found)
		},
	}
	shorthands := map[string]string{
		"setup.py":         "s",
		"requirements.txt": "r",
		"Pipfile":          "p",
		"Pipfile.lock":     "l",
	}
	for _, req := range app.RequirementPatterns {
		flag := strings.ToLower(strings.NewReplacer(".", "-", "_", "-").Replace(req.Name))
		patterns[req.Name] = cmd.Flags().StringP(flag, shorthands[req.Name], req.Pattern, req.Name+" glob pattern")
	}
	return cmd
}

func newExtractCommand(rt *runtime) *cobra.Command {
	var (
		notebooks []string
		mask      notebook.Mask
	)
	cmd := &cobra.Command{
		Use:   "extract [notebooks...]",
		Short: "Extract notebook records as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append(slices.Clone(notebooks), args...)
			if len(paths) == 0 {
				if err := json.NewDecoder(rt.stdin).Decode(&paths); err != nil {
					return errors.Wrap(err, errors.CodeValidationError, "read notebook paths from stdin")
				}
			}
			records, err := rt.app.LoadRecords(cmd.Context(), paths, mask)
			if err != nil {
				return err
			}
			return report.WriteRecords(cmd.OutOrStdout(), rt.format, records)
		},
	}
	cmd.Flags().StringArrayVarP(&notebooks, "notebooks", "n", nil, "Notebook files. If empty, a JSON list of paths is read from stdin")
	cmd.Flags().StringArrayVar(&mask.Include, "include", nil, "Keep only these fields (cells.<field> for cell fields)")
	cmd.Flags().StringArrayVar(&mask.Exclude, "exclude", nil, "Drop these fields (cells.<field> for cell fields)")
	return cmd
}

// inputRecords loads the named notebooks, or decodes a record list from
// stdin when none are named.
func (rt *runtime) inputRecords(cmd *cobra.Command, notebooks []string) ([]util.Record, error) {
	if len(notebooks) > 0 {
		return rt.app.LoadRecords(cmd.Context(), notebooks, notebook.Mask{})
	}
	records, err := notebook.ReadRecords(rt.stdin)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "read records from stdin")
	}
	return records, nil
}

func newSelectCommand(rt *runtime, use, short string, defaults map[string]string) *cobra.Command {
	var (
		notebooks []string
		count     bool
		where     string
	)
	attrs := map[string]*string{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conds, err := selectConditions(attrs, where)
			if err != nil {
				return err
			}
			records, err := rt.inputRecords(cmd, notebooks)
			if err != nil {
				return err
			}
			selected := query.Filter(records, conds)
			if count {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), len(selected))
				return err
			}
			return report.WriteRecords(cmd.OutOrStdout(), rt.format, selected)
		},
	}
	cmd.Flags().StringArrayVarP(&notebooks, "notebooks", "n", nil, notebooksUsage)
	cmd.Flags().BoolVarP(&count, "count", "c", false, "Show count instead of notebooks")
	cmd.Flags().StringVar(&where, "where", "", `Condition list such as "language == python AND total_cells > 3"`)
	for _, field := range notebook.Fields() {
		if field == "cells" {
			continue
		}
		flag := strings.ReplaceAll(field, "_", "-")
		attrs[field] = cmd.Flags().String(flag, defaults[field], "Select "+field)
	}
	return cmd
}

// selectConditions builds the attribute conditions in record field order,
// followed by the --where conditions.
func selectConditions(attrs map[string]*string, where string) ([]query.Condition, error) {
	var conds []query.Condition
	for _, field := range notebook.Fields() {
		expr, ok := attrs[field]
		if !ok || strings.TrimSpace(*expr) == "" {
			continue
		}
		c, err := query.ParseAttr(field, *expr)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if strings.TrimSpace(where) != "" {
		more, err := query.ParseWhere(where)
		if err != nil {
			return nil, err
		}
		conds = append(conds, more...)
	}
	return conds, nil
}

type sectionFlags struct {
	ast, modules, names, ipython bool
}

func (f *sectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.ast, "ast", "a", false, "Count AST node types")
	cmd.Flags().BoolVarP(&f.modules, "modules", "m", false, "Collect imported modules")
	cmd.Flags().BoolVarP(&f.names, "names", "e", false, "Count names by scope and context")
	cmd.Flags().BoolVarP(&f.ipython, "ipython", "i", false, "Collect IPython features")
}

// sections returns the selected feature groups. No selection means all.
func (f *sectionFlags) sections() aggregate.Sections {
	s := aggregate.Sections{AST: f.ast, Modules: f.modules, Names: f.names, IPython: f.ipython}
	if s == (aggregate.Sections{}) {
		return aggregate.AllSections()
	}
	return s
}

func newCodeFeaturesCommand(rt *runtime) *cobra.Command {
	var (
		notebooks []string
		flags     sectionFlags
		opts      app.EnrichOptions
	)
	cmd := &cobra.Command{
		Use:   "code-features",
		Short: "Attach code features to the code cells of notebooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := rt.inputRecords(cmd, notebooks)
			if err != nil {
				return err
			}
			opts.Sections = flags.sections()
			if err := rt.app.Enrich(cmd.Context(), records, opts); err != nil {
				return err
			}
			return report.WriteRecords(cmd.OutOrStdout(), rt.format, records)
		},
	}
	cmd.Flags().StringArrayVarP(&notebooks, "notebooks", "n", nil, notebooksUsage)
	flags.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.IgnoreOthers, "ignore-others", "o", nil, "Drop these cell fields")
	cmd.Flags().StringArrayVarP(&opts.Keep, "keep", "k", nil, "Keep only these cell fields besides the features")
	return cmd
}

func newAggregateCommand(rt *runtime) *cobra.Command {
	var (
		notebooks []string
		flags     sectionFlags
		corpus    bool
	)
	cmd := &cobra.Command{
		Use:   "aggregate-code",
		Short: "Aggregate cell features into notebook summaries",
		Long: "Aggregate cell features into notebook summaries. Named notebooks are " +
			"enriched first; records read from stdin must come from code-features.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sections := flags.sections()
			records, err := rt.inputRecords(cmd, notebooks)
			if err != nil {
				return err
			}
			if len(notebooks) > 0 {
				if err := rt.app.Enrich(cmd.Context(), records, app.EnrichOptions{Sections: sections}); err != nil {
					return err
				}
			}
			summaries, err := app.Summarize(records, sections)
			if err != nil {
				return err
			}
			if corpus {
				summaries = append(summaries, app.Corpus(summaries, sections))
			}
			return report.WriteRecords(cmd.OutOrStdout(), rt.format, report.SummaryRecords(summaries))
		},
	}
	cmd.Flags().StringArrayVarP(&notebooks, "notebooks", "n", nil, notebooksUsage)
	flags.register(cmd)
	cmd.Flags().BoolVar(&corpus, "corpus", false, "Append a corpus summary")
	return cmd
}
