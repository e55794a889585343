package domain

import "time"

type Label string

const (
	LabelAbove     Label = ">50K"
	LabelAtOrBelow Label = "<=50K"
)

func (l Label) Valid() bool {
	return l == LabelAbove || l == LabelAtOrBelow
}

type Prediction struct {
	ID           string     `json:"id"`
	Inputs       UserInputs `json:"inputs"`
	Record       Record     `json:"record"`
	Label        Label      `json:"label"`
	ModelVersion string     `json:"model_version"`
	Cached       bool       `json:"cached"`
	CreatedAt    time.Time  `json:"created_at"`
}

type BatchRowResult struct {
	Row        int         `json:"row"`
	Prediction *Prediction `json:"prediction,omitempty"`
	Error      string      `json:"error,omitempty"`
	Column     Column      `json:"column,omitempty"`
	Value      string      `json:"value,omitempty"`
}

type BatchResult struct {
	Rows      []BatchRowResult `json:"rows"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// SheetRow is one data row of an uploaded workbook, keyed by header name.
type SheetRow struct {
	Number int
	Cells  map[string]string
}
