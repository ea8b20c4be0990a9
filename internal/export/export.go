// Package export writes audit records as CSV or JSON documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/scoring"
)

// ErrUnknownFormat is returned for formats other than csv and json.
var ErrUnknownFormat = errors.New("unknown export format")

// Format selects the output encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from a file extension, defaulting to csv.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

var leadingColumns = []string{
	"ID", "Gerente", "Projeto", "Sprint", "Início", "Fim", "Duração (dias)",
	"Data", "Auditor", "Score", "Status",
}

var trailingColumns = []string{
	"Tempo Previsto", "Total Horas", "Diferença Horas", "Observações", "Ações Corretivas",
}

// Header returns the CSV column names. Checklist columns use the
// criterion labels in canonical order.
func Header() []string {
	h := make([]string, 0, len(leadingColumns)+len(scoring.Criteria)+len(trailingColumns))
	h = append(h, leadingColumns...)
	for _, c := range scoring.Criteria {
		h = append(h, c.Label)
	}
	return append(h, trailingColumns...)
}

// WriteCSV writes a header row and one row per audit.
func WriteCSV(w io.Writer, audits []model.Audit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range audits {
		if err := cw.Write(row(audits[i])); err != nil {
			return fmt.Errorf("write csv row %s: %w", audits[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(a model.Audit) []string {
	r := []string{
		a.ID,
		a.Manager,
		a.Project,
		a.Sprint,
		a.SprintStart,
		a.SprintEnd,
		strconv.Itoa(a.DurationDays),
		a.AuditDate,
		a.Auditor,
		strconv.FormatFloat(a.ScoreTotal, 'f', 1, 64),
		string(a.Status),
	}
	for _, v := range a.Checklist.Values() {
		if v {
			r = append(r, "Sim")
		} else {
			r = append(r, "Não")
		}
	}
	return append(r,
		optional(a.EstimatedHours),
		optional(a.TotalHoursSpent),
		optional(a.HoursDelta),
		a.Notes,
		a.CorrectiveActions,
	)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Document is the JSON export envelope.
type Document struct {
	ExportedAt string        `json:"exportedAt"`
	Count      int           `json:"count"`
	Audits     []model.Audit `json:"audits"`
}

// WriteJSON writes an indented Document stamped with at.
func WriteJSON(w io.Writer, audits []model.Audit, at time.Time) error {
	doc := Document{
		ExportedAt: at.UTC().Format(time.RFC3339),
		Count:      len(audits),
		Audits:     audits,
	}
	if doc.Audits == nil {
		doc.Audits = []model.Audit{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, format Format, audits []model.Audit, at time.Time) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, audits)
	case FormatJSON:
		return WriteJSON(w, audits, at)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// ToFile creates path and writes the audits in the given format.
func ToFile(path string, format Format, audits []model.Audit, at time.Time) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close export file: %w", cerr)
		}
	}()
	return Write(f, format, audits, at)
}
