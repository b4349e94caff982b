package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"sndx/internal/catalog"
	"sndx/internal/metadata"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type metadataJSON struct {
	URL             string   `json:"url"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle"`
	Code            string   `json:"code"`
	Date            string   `json:"date"`
	Place           string   `json:"place"`
	Authors         []string `json:"authors"`
	DurationSeconds int64    `json:"duration_seconds"`
	File            string   `json:"file"`
}

func metadataView(md metadata.RecordingMetadata, file string) metadataJSON {
	return metadataJSON{
		URL:             md.URL,
		Category:        md.Category,
		Title:           md.Title,
		Subtitle:        md.Subtitle,
		Code:            md.Code,
		Date:            md.Date,
		Place:           md.Place,
		Authors:         md.Authors,
		DurationSeconds: int64(md.Duration / time.Second),
		File:            file,
	}
}

type catalogEntryJSON struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Code            string   `json:"code,omitempty"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors,omitempty"`
	DurationSeconds int64    `json:"duration_seconds"`
	File            string   `json:"file"`
	SizeBytes       int64    `json:"size_bytes"`
	RunID           string   `json:"run_id,omitempty"`
	RecordedAt      string   `json:"recorded_at"`
}

func catalogView(entries []catalog.Entry) []catalogEntryJSON {
	out := make([]catalogEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, catalogEntryJSON{
			ID:              e.ID,
			URL:             e.URL,
			Code:            e.Code,
			Title:           e.Title,
			Authors:         e.Authors,
			DurationSeconds: int64(e.Duration / time.Second),
			File:            e.File,
			SizeBytes:       e.SizeBytes,
			RunID:           e.RunID,
			RecordedAt:      e.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
