// Package cli is the docclassify command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/core/usecase"
)

// Services is what the commands need from the wired application.
type Services struct {
	Classifiers     usecase.Classifiers
	DefaultStrategy domain.Strategy
	Resolver        ports.FileResolver
	Report          ports.ReportWriter
	Logger          *slog.Logger
}

// Loader builds Services on first use. close releases whatever the loader
// opened and may be nil.
type Loader func(ctx context.Context) (services *Services, close func(), err error)

type app struct {
	load Loader
}

func NewRootCommand(load Loader) *cobra.Command {
	a := &app{load: load}

	root := &cobra.Command{
		Use:   "docclassify",
		Short: "Classify PDF and image documents",
		Long: `docclassify extracts text from PDF and image files and classifies each
file as one of the registered document types.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newClassifyCommand(a),
		newEvalCommand(a),
		newMCPCommand(a),
		newTypesCommand(),
	)
	return root
}

// withServices runs fn with loaded services and releases them afterwards.
func (a *app) withServices(ctx context.Context, fn func(*Services) error) error {
	if a.load == nil {
		return errors.New("services are not configured")
	}
	services, closeFn, err := a.load(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(services)
}

func (s *Services) strategyOrDefault(raw string) (domain.Strategy, error) {
	if raw == "" {
		return s.DefaultStrategy, nil
	}
	return domain.ParseStrategy(raw)
}

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List document type identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, label := range domain.CandidateLabels() {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}
