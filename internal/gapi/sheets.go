package gapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
)

// GetSpreadsheet returns a spreadsheet's metadata and sheet list.
func (c *Client) GetSpreadsheet(ctx context.Context, spreadsheetID string) (*Spreadsheet, error) {
	q := url.Values{}
	q.Set("fields", "spreadsheetId,properties.title,spreadsheetUrl,sheets.properties")

	resp, err := c.Do(ctx, http.MethodGet, c.sheetsURL+"/spreadsheets/"+url.PathEscape(spreadsheetID), q, nil)
	if err != nil {
		return nil, err
	}

	var s Spreadsheet
	if err := decodeJSON(resp, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// GetValues reads a block of cell values in A1 notation.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, valueRange string) (*ValueRange, error) {
	resp, err := c.Do(ctx, http.MethodGet, c.valuesURL(spreadsheetID, valueRange), nil, nil)
	if err != nil {
		return nil, err
	}

	var vr ValueRange
	if err := decodeJSON(resp, &vr); err != nil {
		return nil, err
	}

	return &vr, nil
}

// UpdateValues overwrites a block of cell values. Input is parsed as a
// user would type it (USER_ENTERED), so formulas and dates behave.
func (c *Client) UpdateValues(
	ctx context.Context, spreadsheetID, valueRange string, values [][]any,
) (*UpdateValuesResult, error) {
	body, err := JSONBody(ValueRange{Range: valueRange, Values: values})
	if err != nil {
		return nil, err
	}

	c.logger.Info("updating cell values",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", valueRange),
		slog.Int("rows", len(values)),
	)

	q := url.Values{}
	q.Set("valueInputOption", "USER_ENTERED")

	resp, err := c.Do(ctx, http.MethodPut, c.valuesURL(spreadsheetID, valueRange), q, body)
	if err != nil {
		return nil, err
	}

	var result UpdateValuesResult
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// AppendValues appends rows after the last row of the table found in the
// given range.
func (c *Client) AppendValues(
	ctx context.Context, spreadsheetID, valueRange string, values [][]any,
) (*AppendValuesResult, error) {
	body, err := JSONBody(ValueRange{Values: values})
	if err != nil {
		return nil, err
	}

	c.logger.Info("appending cell values",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", valueRange),
		slog.Int("rows", len(values)),
	)

	q := url.Values{}
	q.Set("valueInputOption", "USER_ENTERED")
	q.Set("insertDataOption", "INSERT_ROWS")

	resp, err := c.Do(ctx, http.MethodPost, c.valuesURL(spreadsheetID, valueRange)+":append", q, body)
	if err != nil {
		return nil, err
	}

	var result AppendValuesResult
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// valuesURL builds the values endpoint URL for a spreadsheet and range.
func (c *Client) valuesURL(spreadsheetID, valueRange string) string {
	return c.sheetsURL + "/spreadsheets/" + url.PathEscape(spreadsheetID) +
		"/values/" + url.PathEscape(valueRange)
}
