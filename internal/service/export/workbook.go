package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
)

// Sheet names of the exported workbook.
const (
	ConversationSheet = "Conversation"
	PerformanceSheet  = "Performance"
	AllocationSheet   = "Allocation"
	ProfileSheet      = "Profile"
)

// Workbook renders a session transcript and its chart data as xlsx.
type Workbook struct {
	file *excelize.File
}

// Build lays out the profile, transcript and the most recent line and pie
// payloads on separate sheets. Chart sheets are omitted when the transcript
// carries no payload of that kind.
func Build(p profile.Profile, messages []chat.Message) (*Workbook, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(ConversationSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create %s sheet: %w", ConversationSheet, err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	w := &Workbook{file: f}
	if err := w.writeConversation(messages); err != nil {
		f.Close()
		return nil, err
	}

	var line, pie *chat.ChartPayload
	for _, msg := range messages {
		if msg.Chart == nil {
			continue
		}
		switch msg.Chart.Kind {
		case chat.ChartLine:
			line = msg.Chart
		case chat.ChartPie:
			pie = msg.Chart
		}
	}
	if line != nil {
		if err := w.writeLine(line); err != nil {
			f.Close()
			return nil, err
		}
	}
	if pie != nil {
		if err := w.writePie(pie); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := w.writeProfile(p); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workbook) writeConversation(messages []chat.Message) error {
	if err := w.writeRow(ConversationSheet, 1, "Time", "Sender", "Intent", "Message", "Chart"); err != nil {
		return err
	}
	for i, msg := range messages {
		chart := ""
		if msg.Chart != nil {
			chart = string(msg.Chart.Kind)
		}
		if err := w.writeRow(ConversationSheet, i+2, msg.CreatedAt.Format(time.RFC3339), msg.Sender, msg.Intent, msg.Content, chart); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeLine(c *chat.ChartPayload) error {
	if _, err := w.file.NewSheet(PerformanceSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", PerformanceSheet, err)
	}
	if err := w.writeRow(PerformanceSheet, 1, "Month", "Value"); err != nil {
		return err
	}
	for i, p := range c.Line {
		if err := w.writeRow(PerformanceSheet, i+2, p.Label, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writePie(c *chat.ChartPayload) error {
	if _, err := w.file.NewSheet(AllocationSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", AllocationSheet, err)
	}
	if err := w.writeRow(AllocationSheet, 1, "Category", "Current %", "Recommended %"); err != nil {
		return err
	}
	for i, s := range c.Pie {
		var rec any = ""
		if s.Recommended != nil {
			rec = *s.Recommended
		}
		if err := w.writeRow(AllocationSheet, i+2, s.Name, s.Value, rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeProfile(p profile.Profile) error {
	if _, err := w.file.NewSheet(ProfileSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", ProfileSheet, err)
	}
	rows := [][]any{
		{"Name", p.Name},
		{"Risk level", p.RiskLevel},
		{"Portfolio value", p.PortfolioValue},
		{"Retirement savings", p.RetirementSavings},
		{"Retirement goal", p.RetirementGoal},
		{"Goal progress %", p.GoalProgress()},
	}
	for i, row := range rows {
		if err := w.writeRow(ProfileSheet, i+1, row...); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeRow(sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// File exposes the underlying workbook.
func (w *Workbook) File() *excelize.File {
	return w.file
}

// WriteTo streams the workbook as xlsx.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	return w.file.WriteTo(out)
}

// Close releases workbook resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}
