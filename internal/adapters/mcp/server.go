// Package mcp exposes the predictor as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
)

const (
	serverName = "income-bracket-predictor"

	toolPredict     = "predict_income_bracket"
	toolListOptions = "list_attribute_options"
)

type Server struct {
	predictor ports.IncomePredictor
	catalog   domain.Catalog
	version   string
}

func NewServer(predictor ports.IncomePredictor, catalog domain.Catalog, version string) *Server {
	return &Server{predictor: predictor, catalog: catalog, version: version}
}

// MCPServer builds the protocol server with both tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(serverName, s.version, server.WithToolCapabilities(false))
	srv.AddTool(s.predictTool(), s.handlePredict)
	srv.AddTool(mcp.NewTool(toolListOptions,
		mcp.WithDescription("List the accepted values and ranges for every attribute of "+toolPredict+"."),
	), s.handleListOptions)
	return srv
}

// ServeStdio blocks serving the tools over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) predictTool() mcp.Tool {
	age := s.catalog.Ranges[domain.ColumnAge]
	hours := s.catalog.Ranges[domain.ColumnHoursPerWeek]

	opts := []mcp.ToolOption{
		mcp.WithDescription("Predict whether an employee earns more than 50K a year (\">50K\") or not (\"<=50K\")."),
		mcp.WithNumber("age", mcp.Required(),
			mcp.Description(fmt.Sprintf("Age in years, %d-%d.", age.Min, age.Max)),
			mcp.Min(float64(age.Min)), mcp.Max(float64(age.Max))),
		mcp.WithNumber("hours_per_week", mcp.Required(),
			mcp.Description(fmt.Sprintf("Weekly working hours, %d-%d.", hours.Min, hours.Max)),
			mcp.Min(float64(hours.Min)), mcp.Max(float64(hours.Max))),
	}
	for _, f := range (domain.UserInputs{}).Categories() {
		opts = append(opts, mcp.WithString(argumentName(f.Column), mcp.Required(),
			mcp.Enum(s.catalog.Options[f.Column]...)))
	}
	return mcp.NewTool(toolPredict, opts...)
}

func (s *Server) handlePredict(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := inputsFromArguments(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prediction, err := s.predictor.Run(ctx, in)
	if err != nil {
		if unknown, ok := domain.AsUnknownCategory(err); ok {
			return mcp.NewToolResultError(fmt.Sprintf("%q is not a known value for %s", unknown.Value, unknown.Column)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := json.Marshal(map[string]any{
		"label":         prediction.Label,
		"model_version": prediction.ModelVersion,
		"record":        prediction.Record,
	})
	if err != nil {
		return nil, fmt.Errorf("encode prediction: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleListOptions(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	options := make(map[string]any, len(s.catalog.Options)+len(s.catalog.Ranges))
	for col, values := range s.catalog.Options {
		options[argumentName(col)] = values
	}
	for col, r := range s.catalog.Ranges {
		options[argumentName(col)] = r
	}
	payload, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func inputsFromArguments(req mcp.CallToolRequest) (domain.UserInputs, error) {
	age, err := wholeNumber(req, "age")
	if err != nil {
		return domain.UserInputs{}, err
	}
	hours, err := wholeNumber(req, "hours_per_week")
	if err != nil {
		return domain.UserInputs{}, err
	}

	in := domain.UserInputs{Age: age, HoursPerWeek: hours}
	fields := map[domain.Column]*string{
		domain.ColumnWorkclass:     &in.Workclass,
		domain.ColumnEducation:     &in.Education,
		domain.ColumnMaritalStatus: &in.MaritalStatus,
		domain.ColumnOccupation:    &in.Occupation,
		domain.ColumnRelationship:  &in.Relationship,
		domain.ColumnRace:          &in.Race,
		domain.ColumnGender:        &in.Gender,
		domain.ColumnNativeCountry: &in.NativeCountry,
	}
	for col, dst := range fields {
		v, err := req.RequireString(argumentName(col))
		if err != nil {
			return domain.UserInputs{}, err
		}
		*dst = v
	}
	return in, nil
}

func wholeNumber(req mcp.CallToolRequest, name string) (int, error) {
	v, err := req.RequireFloat(name)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be a whole number, got %v", name, v)
	}
	return int(v), nil
}

// argumentName maps a record column to the snake_case tool argument.
func argumentName(col domain.Column) string {
	out := []byte(col)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
