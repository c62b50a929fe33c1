// Package digest runs the end-to-end ranking pipeline: input JSON in,
// ranked summary JSON out.
package digest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Input is the persisted request, usually data/input.json.
type Input struct {
	Documents     []InputDocument `json:"documents"`
	Persona       Persona         `json:"persona"`
	JobToBeDone   Job             `json:"job_to_be_done"`
	ChallengeInfo json.RawMessage `json:"challenge_info,omitempty"`
}

type InputDocument struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

type Persona struct {
	Role string `json:"role"`
}

type Job struct {
	Task string `json:"task"`
}

// Output is the persisted ranked digest, written as summary.json.
type Output struct {
	ChallengeInfo      json.RawMessage `json:"challenge_info"`
	Metadata           Metadata        `json:"metadata"`
	ExtractedSections  []Extracted     `json:"extracted_sections"`
	SubsectionAnalysis []Subsection    `json:"subsection_analysis"`
}

type Metadata struct {
	InputDocuments        []string `json:"input_documents"`
	Persona               string   `json:"persona"`
	JobToBeDone           string   `json:"job_to_be_done"`
	ProcessingTimestamp   string   `json:"processing_timestamp"`
	ModelUsed             string   `json:"model_used"`
	ProcessingTimeSeconds float64  `json:"processing_time_seconds"`
}

type Extracted struct {
	Document       string  `json:"document"`
	DocumentTitle  string  `json:"document_title"`
	PageNumber     int     `json:"page_number"`
	SectionTitle   string  `json:"section_title"`
	ImportanceRank int     `json:"importance_rank"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Subsection struct {
	Document       string  `json:"document"`
	DocumentTitle  string  `json:"document_title"`
	RefinedText    string  `json:"refined_text"`
	PageNumber     int     `json:"page_number"`
	RelevanceScore float64 `json:"relevance_score"`
}

// LoadInput reads and decodes an input file. A missing file is
// ErrInputNotFound.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode input %s: %w", path, err)
	}
	return &in, nil
}
