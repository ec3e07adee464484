// Package sheets reads publishing jobs from a Google Sheet and writes
// processing results back to the status column.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"reelpost/internal/services"
)

// Client wraps the Sheets API for one spreadsheet worksheet.
type Client struct {
	service       *sheetsapi.Service
	spreadsheetID string
	worksheet     string
}

// New builds a Sheets client from a service account credentials file.
func New(ctx context.Context, credentialsPath, spreadsheetID, worksheet string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, services.Wrapf(services.ErrConfiguration, "spreadsheet id is required")
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "service account credentials", err)
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "create sheets service", err)
	}

	client := &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}
	if err := client.resolveWorksheet(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// resolveWorksheet confirms the configured worksheet exists and falls back to
// the spreadsheet's first sheet when it does not.
func (c *Client) resolveWorksheet(ctx context.Context) error {
	meta, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return services.Wrap(services.ErrTransient, "read spreadsheet metadata", err)
	}
	if len(meta.Sheets) == 0 {
		return services.Wrapf(services.ErrConfiguration, "spreadsheet %s has no worksheets", c.spreadsheetID)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.worksheet {
			return nil
		}
	}
	if meta.Sheets[0].Properties != nil {
		c.worksheet = meta.Sheets[0].Properties.Title
	}
	return nil
}

// FetchRows reads every populated row from the worksheet.
func (c *Client) FetchRows(ctx context.Context) ([][]string, error) {
	readRange := c.worksheet
	if readRange == "" {
		readRange = "A:F"
	} else {
		readRange += "!A:F"
	}

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "read sheet values", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, value := range raw {
			row = append(row, fmt.Sprint(value))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MarkStatus writes "Yes" or "No" to the status column of the given row.
func (c *Client) MarkStatus(ctx context.Context, row int64, success bool) error {
	value := "No"
	if success {
		value = "Yes"
	}

	cellRange := fmt.Sprintf("%s%d", columnLetter(StatusColumn), row)
	if c.worksheet != "" {
		cellRange = c.worksheet + "!" + cellRange
	}

	body := &sheetsapi.ValueRange{Values: [][]any{{value}}}
	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, cellRange, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return services.Wrap(services.ErrTransient, "update status cell", err)
	}
	return nil
}

func columnLetter(column int) string {
	return string(rune('A' + column - 1))
}
