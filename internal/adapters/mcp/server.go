// Package mcpadapter exposes document classification as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/usecase"
)

const (
	serverName    = "document-classifier"
	serverVersion = "0.1.0"

	toolClassify  = "classify_documents"
	toolListTypes = "list_document_types"
)

type Server struct {
	classifiers     usecase.Classifiers
	defaultStrategy domain.Strategy
	logger          *slog.Logger
	mcp             *server.MCPServer
}

func NewServer(classifiers usecase.Classifiers, defaultStrategy domain.Strategy, logger *slog.Logger) (*Server, error) {
	if len(classifiers) == 0 {
		return nil, errors.New("at least one classifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		classifiers:     classifiers,
		defaultStrategy: defaultStrategy,
		logger:          logger,
		mcp:             server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// ServeStdio blocks until stdin is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(toolClassify,
		mcp.WithDescription("Classify local PDF or image files into document types. Pass either paths or directory."),
		mcp.WithArray("paths",
			mcp.Description("Files to classify. One path yields file_class, several yield file_classes."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("directory",
			mcp.Description("Directory whose immediate files are classified."),
		),
		mcp.WithString("strategy",
			mcp.Description("Classification strategy; defaults to the server setting."),
			mcp.Enum(string(domain.StrategyFilename), string(domain.StrategyZeroShot)),
		),
	), s.handleClassify)

	s.mcp.AddTool(mcp.NewTool(toolListTypes,
		mcp.WithDescription("List the document type identifiers a classification can return."),
	), s.handleListTypes)
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := inputFromArguments(request.GetStringSlice("paths", nil), request.GetString("directory", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	strategy := s.defaultStrategy
	if raw := request.GetString("strategy", ""); raw != "" {
		if strategy, err = domain.ParseStrategy(raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	classifier, err := s.classifiers.For(strategy)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output, err := classifier.Classify(ctx, input)
	if err != nil {
		s.logger.Error("mcp_classify_failed", "strategy", strategy, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("marshal classification output: %w", err)
	}
	s.logger.Info("mcp_classify_completed", "strategy", strategy, "mode", input.Kind().String())
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListTypes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(map[string][]string{"document_types": domain.CandidateLabels()})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func inputFromArguments(paths []string, directory string) (domain.ClassificationInput, error) {
	directory = strings.TrimSpace(directory)
	switch {
	case directory != "" && len(paths) > 0:
		return domain.ClassificationInput{}, errors.New("pass either paths or directory, not both")
	case directory != "":
		return domain.Directory(directory), nil
	case len(paths) == 1:
		return domain.SingleFile(paths[0]), nil
	case len(paths) > 1:
		return domain.Batch(paths...)
	default:
		return domain.ClassificationInput{}, errors.New("paths or directory is required")
	}
}
