package admin

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sheetRow(platform, latest, minimum, force, store, maintenance, message string) []string {
	return []string{platform, latest, minimum, force, store, maintenance, message, ""}
}

var headerRow = []string{"platform", "latest", "minimum", "force_minimum", "store_url", "maintenance", "message", "notes"}

func TestParseGateRows(t *testing.T) {
	rows := [][]string{
		headerRow,
		sheetRow("Android", "2.0.0", "1.5.0", "1.0.0", "https://play.example", "false", ""),
		sheetRow("ios", "2.1.0", "1.6.0", "1.1.0", "https://apps.example", "TRUE", "Back soon"),
	}

	gates, err := parseGateRows(rows)
	require.NoError(t, err)
	require.Len(t, gates, 2)

	assert.Equal(t, "android", gates[0].Platform, "platforms are normalized to lower case")
	assert.Equal(t, "2.0.0", gates[0].LatestVersion)
	assert.False(t, gates[0].MaintenanceMode)

	assert.Equal(t, "ios", gates[1].Platform)
	assert.True(t, gates[1].MaintenanceMode)
	assert.Equal(t, "Back soon", gates[1].MaintenanceMessage)
}

func TestParseGateRowsSkipsBlankRows(t *testing.T) {
	rows := [][]string{
		headerRow,
		{},
		sheetRow("", "", "", "", "", "", ""),
		sheetRow("web", "1.0.0", "1.0.0", "1.0.0", "https://app.example", "", ""),
	}

	gates, err := parseGateRows(rows)
	require.NoError(t, err)
	require.Len(t, gates, 1)
	assert.Equal(t, "web", gates[0].Platform)
}

func TestParseGateRowsShortRow(t *testing.T) {
	// Spreadsheet libraries trim trailing empty cells; missing columns
	// read as empty strings, not as errors.
	rows := [][]string{
		headerRow,
		{"android", "2.0.0", "1.5.0", "1.0.0"},
	}

	gates, err := parseGateRows(rows)
	require.NoError(t, err)
	require.Len(t, gates, 1)
	assert.Empty(t, gates[0].StoreURL)
	assert.False(t, gates[0].MaintenanceMode)
}

func TestParseGateRowsErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		wantErr string
	}{
		{
			name: "duplicate platform",
			rows: [][]string{
				headerRow,
				sheetRow("android", "2.0.0", "1.5.0", "1.0.0", "", "", ""),
				sheetRow("Android", "2.0.0", "1.5.0", "1.0.0", "", "", ""),
			},
			wantErr: `row 3: duplicate platform "android"`,
		},
		{
			name: "bad version",
			rows: [][]string{
				headerRow,
				sheetRow("android", "2.0.0", "one.five", "1.0.0", "", "", ""),
			},
			wantErr: "row 2: invalid minimum_version",
		},
		{
			name: "bad maintenance flag",
			rows: [][]string{
				headerRow,
				sheetRow("android", "2.0.0", "1.5.0", "1.0.0", "", "yes please", ""),
			},
			wantErr: `row 2: invalid maintenance flag "yes please"`,
		},
		{
			name:    "no data rows",
			rows:    [][]string{headerRow, {}},
			wantErr: "no gates found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseGateRows(tt.rows)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func buildWorkbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		start, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", start, &cells))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func multipartUpload(t *testing.T, content *bytes.Buffer) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "gates.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/gates/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportHandlerFromExcel(t *testing.T) {
	h, mock := newGateHandler(t)
	now := time.Now()

	workbook := buildWorkbook(t, [][]string{
		headerRow,
		sheetRow("android", "2.0.0", "1.5.0", "1.0.0", "https://play.example", "false", ""),
		sheetRow("ios", "2.1.0", "1.6.0", "1.1.0", "https://apps.example", "true", "Back soon"),
	})

	// The swap lists what exists today, then replaces it transactionally.
	mock.ExpectQuery("SELECT (.+) FROM version_gates ORDER BY platform").
		WillReturnRows(sqlmock.NewRows(gateColumns))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM version_gates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO version_gates").
		WithArgs("android", "2.0.0", "1.5.0", "1.0.0", "https://play.example", false, "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))
	mock.ExpectQuery("INSERT INTO version_gates").
		WithArgs("ios", "2.1.0", "1.6.0", "1.1.0", "https://apps.example", true, "Back soon", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(2, now, now))
	mock.ExpectCommit()

	rr := httptest.NewRecorder()
	h.ImportHandler(rr, multipartUpload(t, workbook))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"imported":2`)
}

func TestImportHandlerRejectsBadRow(t *testing.T) {
	h, _ := newGateHandler(t)

	workbook := buildWorkbook(t, [][]string{
		headerRow,
		sheetRow("android", "not-a-version", "1.5.0", "1.0.0", "", "false", ""),
	})

	rr := httptest.NewRecorder()
	h.ImportHandler(rr, multipartUpload(t, workbook))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid latest_version")
}

func TestImportHandlerRejectsHeaderOnlyFile(t *testing.T) {
	h, _ := newGateHandler(t)

	workbook := buildWorkbook(t, [][]string{headerRow})

	rr := httptest.NewRecorder()
	h.ImportHandler(rr, multipartUpload(t, workbook))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "header and at least one row")
}

func TestImportHandlerRequiresFile(t *testing.T) {
	h, _ := newGateHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/gates/import", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=missing")
	rr := httptest.NewRecorder()
	h.ImportHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "File not found")
}

func TestImportHandlerRequiresSheetURL(t *testing.T) {
	h, _ := newGateHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/gates/import", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ImportHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "google_sheet_url is required")
}
