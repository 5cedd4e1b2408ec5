package models

import "time"

// ScaleItem is one summary scale row.
type ScaleItem struct {
	Label    string `json:"label"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
}

// VisualProfileItem is one bar of the visual profile.
type VisualProfileItem struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Total int    `json:"total"`
}

// Observation pairs a drawing element with its features and interpretation.
type Observation struct {
	Element    string `json:"element"`
	Features   string `json:"features"`
	Conclusion string `json:"conclusion"`
}

// ReportParagraph is a labelled line of report text.
type ReportParagraph struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

// ReportSection groups paragraphs under a heading.
type ReportSection struct {
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle,omitempty"`
	Paragraphs   []ReportParagraph `json:"paragraphs,omitempty"`
	Observations []Observation     `json:"observations,omitempty"`
	Conclusion   string            `json:"conclusion,omitempty"`
}

// ReportSummary is the "brief description" block.
type ReportSummary struct {
	ChildName  string `json:"childName"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	ParentName string `json:"parentName"`
	Intro      string `json:"intro"`
}

// Report is the rendered document for the last wizard step. Scales and the visual profile
// are sample values and do not depend on the answers.
type Report struct {
	Title           string              `json:"title"`
	AgeYears        *int                `json:"ageYears,omitempty"`
	Summary         ReportSummary       `json:"summary"`
	Sections        []ReportSection     `json:"sections"`
	Scales          []ScaleItem         `json:"scales"`
	VisualProfile   []VisualProfileItem `json:"visualProfile"`
	Recommendations []string            `json:"recommendations"`
	Closing         string              `json:"closing"`
	GeneratedAt     time.Time           `json:"generatedAt"`
}
