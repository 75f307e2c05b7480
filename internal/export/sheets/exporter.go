package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

// Columns defines the header row of the results sheet
var Columns = []string{
	"Job ID",
	"Query",
	"Analyzer",
	"Video ID",
	"Video Title",
	"Channel",
	"Thumbnail URL",
	"Pros",
	"Cons",
	"Summary",
	"Keywords",
	"Comment Count",
	"Positive",
	"Neutral",
	"Negative",
	"Exported At",
}

const lastColumn = "P"

// Exporter appends job result rows to a Google Sheet
type Exporter struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
	now           func() time.Time

	mu          sync.Mutex
	initialized bool
}

// New creates a sheets exporter. It returns nil when export is disabled.
// Extra client options are applied after the configured credentials.
func New(ctx context.Context, cfg config.SheetsConfig, log *logger.Logger, opts ...option.ClientOption) (*Exporter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var clientOpts []option.ClientOption
	// Try service account JSON first (for env var injection)
	switch {
	case cfg.ServiceAccountJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case len(opts) == 0:
		return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
	}
	clientOpts = append(clientOpts, opts...)

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Results"
	}

	return &Exporter{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-export"),
		now:           time.Now,
	}, nil
}

// Export appends one row per result in a single API call, creating the
// sheet and its header row on first use.
func (e *Exporter) Export(ctx context.Context, job *models.Job, rows []*models.JobResult) error {
	if len(rows) == 0 {
		return nil
	}
	if err := e.ensureInitialized(ctx); err != nil {
		return err
	}

	exportedAt := e.now().UTC().Format(time.RFC3339)
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			r.JobID,
			job.Query,
			string(job.Analyzer),
			r.VideoID,
			r.VideoTitle,
			r.ChannelTitle,
			r.ThumbnailURL,
			r.Pros,
			r.Cons,
			r.Summary,
			strings.Join(r.Keywords, ", "),
			r.CommentCount,
			r.Positive,
			r.Neutral,
			r.Negative,
			exportedAt,
		})
	}

	appendRange := fmt.Sprintf("%s!A:%s", e.sheetName, lastColumn)
	_, err := e.service.Spreadsheets.Values.Append(e.spreadsheetID, appendRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}

	e.log.Info().
		Str("job_id", job.ID).
		Int("rows", len(values)).
		Msg("Exported results to sheet")
	return nil
}

func (e *Exporter) ensureInitialized(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	if err := e.InitializeSheet(ctx); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// InitializeSheet creates the sheet and headers if they don't exist
func (e *Exporter) InitializeSheet(ctx context.Context) error {
	if err := e.ensureSheetExists(ctx); err != nil {
		return err
	}

	readRange := fmt.Sprintf("%s!A1:%s1", e.sheetName, lastColumn)
	resp, err := e.service.Spreadsheets.Values.Get(e.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	header := make([]interface{}, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	writeRange := fmt.Sprintf("%s!A1", e.sheetName)
	_, err = e.service.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, &sheets.ValueRange{
		Values: [][]interface{}{header},
	}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	e.log.Info().Str("sheet", e.sheetName).Msg("Sheet headers initialized")
	return nil
}

func (e *Exporter) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := e.service.Spreadsheets.Get(e.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == e.sheetName {
			return nil
		}
	}

	e.log.Info().Str("sheet", e.sheetName).Msg("Creating new sheet")
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: e.sheetName},
			},
		}},
	}
	if _, err := e.service.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	return nil
}
