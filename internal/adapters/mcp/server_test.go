package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

type predictorFake struct {
	got domain.UserInputs
	err error
}

func (f *predictorFake) Assemble(domain.UserInputs) (domain.Record, error) { return domain.Record{}, nil }
func (f *predictorFake) Encode(rec domain.Record) (domain.Record, error)  { return rec, nil }
func (f *predictorFake) Predict(context.Context, domain.Record) (domain.Label, error) {
	return domain.LabelAbove, nil
}
func (f *predictorFake) ModelVersion() string { return "fake-v1" }

func (f *predictorFake) Run(_ context.Context, in domain.UserInputs) (*domain.Prediction, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Prediction{
		Label:        domain.LabelAbove,
		ModelVersion: "fake-v1",
		Record:       domain.NewRecord(domain.Field{Column: domain.ColumnAge, Value: domain.Numeric(float64(in.Age))}),
	}, nil
}

func testCatalog() domain.Catalog {
	return domain.Catalog{
		Options: map[domain.Column][]string{
			domain.ColumnWorkclass:     {"Private"},
			domain.ColumnEducation:     {"Masters"},
			domain.ColumnMaritalStatus: {"Married-civ-spouse"},
			domain.ColumnOccupation:    {"Exec-managerial"},
			domain.ColumnRelationship:  {"Husband"},
			domain.ColumnRace:          {"White"},
			domain.ColumnGender:        {"Male"},
			domain.ColumnNativeCountry: {"United-States", "Not-Listed"},
		},
		Ranges: map[domain.Column]domain.IntRange{
			domain.ColumnAge:          {Min: 17, Max: 70},
			domain.ColumnHoursPerWeek: {Min: 1, Max: 80},
		},
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = toolPredict
	req.Params.Arguments = args
	return req
}

func validArgs() map[string]any {
	return map[string]any{
		"age":            45.0,
		"hours_per_week": 50.0,
		"workclass":      "Private",
		"education":      "Masters",
		"marital_status": "Married-civ-spouse",
		"occupation":     "Exec-managerial",
		"relationship":   "Husband",
		"race":           "White",
		"gender":         "Male",
		"native_country": "United-States",
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestPredictToolMapsArguments(t *testing.T) {
	fake := &predictorFake{}
	s := NewServer(fake, testCatalog(), "test")

	res, err := s.handlePredict(context.Background(), callRequest(validArgs()))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	assert.Equal(t, domain.UserInputs{
		Age: 45, Workclass: "Private", Education: "Masters", MaritalStatus: "Married-civ-spouse",
		Occupation: "Exec-managerial", Relationship: "Husband", Race: "White", Gender: "Male",
		HoursPerWeek: 50, NativeCountry: "United-States",
	}, fake.got)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, ">50K", payload["label"])
	assert.Equal(t, "fake-v1", payload["model_version"])
}

func TestPredictToolReportsUnknownCategory(t *testing.T) {
	fake := &predictorFake{err: &domain.UnknownCategoryError{Column: domain.ColumnNativeCountry, Value: "Not-Listed"}}
	s := NewServer(fake, testCatalog(), "test")

	args := validArgs()
	args["native_country"] = "Not-Listed"
	res, err := s.handlePredict(context.Background(), callRequest(args))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "native-country")
}

func TestPredictToolRejectsMissingAndFractionalArguments(t *testing.T) {
	s := NewServer(&predictorFake{}, testCatalog(), "test")

	missing := validArgs()
	delete(missing, "race")
	res, err := s.handlePredict(context.Background(), callRequest(missing))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	fractional := validArgs()
	fractional["age"] = 30.5
	res, err = s.handlePredict(context.Background(), callRequest(fractional))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListOptionsTool(t *testing.T) {
	s := NewServer(&predictorFake{}, testCatalog(), "test")

	res, err := s.handleListOptions(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Contains(t, payload, "native_country")
	assert.Contains(t, payload, "hours_per_week")
	assert.JSONEq(t, `["United-States","Not-Listed"]`, string(payload["native_country"]))
}

func TestPredictToolSchemaListsEveryAttribute(t *testing.T) {
	tool := NewServer(&predictorFake{}, testCatalog(), "test").predictTool()
	assert.Len(t, tool.InputSchema.Required, 10)
	assert.Contains(t, tool.InputSchema.Properties, "native_country")
}
