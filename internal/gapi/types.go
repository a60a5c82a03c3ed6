package gapi

// File mirrors the Drive v3 files resource fields this client requests.
type File struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType"`
	Parents      []string `json:"parents,omitempty"`
	ModifiedTime string   `json:"modifiedTime,omitempty"`
	Size         string   `json:"size,omitempty"`
	Trashed      bool     `json:"trashed,omitempty"`
	WebViewLink  string   `json:"webViewLink,omitempty"`
}

// FileList is one page of a Drive file listing.
type FileList struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// fileMetadata is the metadata part of create/update requests.
type fileMetadata struct {
	Name     string   `json:"name,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// ValueRange is a block of spreadsheet cell values in A1 notation.
type ValueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

// UpdateValuesResult reports what an update wrote.
type UpdateValuesResult struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int    `json:"updatedRows"`
	UpdatedColumns int    `json:"updatedColumns"`
	UpdatedCells   int    `json:"updatedCells"`
}

// AppendValuesResult reports where an append landed.
type AppendValuesResult struct {
	SpreadsheetID string              `json:"spreadsheetId"`
	TableRange    string              `json:"tableRange,omitempty"`
	Updates       *UpdateValuesResult `json:"updates,omitempty"`
}

// Spreadsheet is the metadata of a spreadsheet and its sheets.
type Spreadsheet struct {
	SpreadsheetID  string                `json:"spreadsheetId"`
	Properties     SpreadsheetProperties `json:"properties"`
	Sheets         []Sheet               `json:"sheets,omitempty"`
	SpreadsheetURL string                `json:"spreadsheetUrl,omitempty"`
}

// SpreadsheetProperties is the document-level metadata.
type SpreadsheetProperties struct {
	Title string `json:"title"`
}

// Sheet is one tab of a spreadsheet.
type Sheet struct {
	Properties SheetProperties `json:"properties"`
}

// SheetProperties identifies a tab.
type SheetProperties struct {
	SheetID   int64           `json:"sheetId"`
	Title     string          `json:"title"`
	Index     int             `json:"index"`
	SheetType string          `json:"sheetType,omitempty"`
	Grid      *GridProperties `json:"gridProperties,omitempty"`
}

// GridProperties is the size of a grid sheet.
type GridProperties struct {
	RowCount    int `json:"rowCount"`
	ColumnCount int `json:"columnCount"`
}
