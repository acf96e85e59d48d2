package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

func newClassifyCommand(a *app) *cobra.Command {
	var (
		dir      string
		strategy string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "classify [paths...]",
		Short: "Classify files or a directory",
		Long: `Classifies one file, several files, or every file directly inside --dir.
A single path prints one document type; several paths or --dir print one
line per file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := classificationInput(args, dir)
			if err != nil {
				return err
			}
			return a.withServices(cmd.Context(), func(s *Services) error {
				selected, err := s.strategyOrDefault(strategy)
				if err != nil {
					return err
				}
				classifier, err := s.Classifiers.For(selected)
				if err != nil {
					return err
				}
				output, err := classifier.Classify(cmd.Context(), input)
				if err != nil {
					return fmt.Errorf("classify: %w", err)
				}
				if asJSON {
					return printJSON(cmd, output)
				}
				printOutput(cmd, input, output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "classify every file directly inside this directory")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "classification strategy (filename, zero_shot)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func classificationInput(paths []string, dir string) (domain.ClassificationInput, error) {
	switch {
	case dir != "" && len(paths) > 0:
		return domain.ClassificationInput{}, errors.New("pass either paths or --dir, not both")
	case dir != "":
		return domain.Directory(dir), nil
	case len(paths) == 1:
		return domain.SingleFile(paths[0]), nil
	case len(paths) > 1:
		return domain.Batch(paths...)
	default:
		return domain.ClassificationInput{}, errors.New("at least one path or --dir is required")
	}
}

func printJSON(cmd *cobra.Command, output domain.ClassificationOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printOutput(cmd *cobra.Command, input domain.ClassificationInput, output domain.ClassificationOutput) {
	if output.IsSingle() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", input.Paths()[0], output.Type())
		return
	}
	perFile := output.BatchOrEmpty()
	if len(perFile) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No files classified.")
		return
	}
	paths := make([]string, 0, len(perFile))
	for path := range perFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, perFile[path])
	}
}
