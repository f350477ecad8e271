package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/evn/appgate/internal/models"
	"github.com/evn/appgate/internal/pkg/response"
	"github.com/evn/appgate/internal/semver"
)

// Rollout sheets carry one gate per row:
// platform | latest | minimum | force_minimum | store_url | maintenance | message | notes
const sheetRange = "A1:H1000"

type ImportRequest struct {
	GoogleSheetURL string `json:"google_sheet_url,omitempty"`
}

// ImportHandler replaces the whole gate table from an uploaded XLSX file or
// a Google Sheet. The swap is transactional: one bad row rejects the lot.
func (h *GateHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	var rows [][]string
	var err error

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.GoogleSheetURL == "" {
			response.RespondWithError(w, http.StatusBadRequest, "google_sheet_url is required")
			return
		}
		rows, err = readFromGoogleSheet(r.Context(), req.GoogleSheetURL, h.credentialsFile)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to read Google Sheet: "+err.Error())
			return
		}
	} else {
		file, _, err := r.FormFile("file")
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "File not found in request")
			return
		}
		defer file.Close()

		xlsx, err := excelize.OpenReader(file)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid Excel file")
			return
		}
		rows, err = xlsx.GetRows("Sheet1")
		if err != nil {
			sheets := xlsx.GetSheetList()
			if len(sheets) == 0 {
				response.RespondWithError(w, http.StatusBadRequest, "Empty Excel file")
				return
			}
			rows, err = xlsx.GetRows(sheets[0])
			if err != nil {
				response.RespondWithError(w, http.StatusInternalServerError, "Failed to read sheet")
				return
			}
		}
	}

	if len(rows) < 2 {
		response.RespondWithError(w, http.StatusBadRequest, "File must contain a header and at least one row")
		return
	}

	imported, err := parseGateRows(rows)
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.gates.ReplaceAll(r.Context(), imported); err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to import gates: "+err.Error())
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"imported": len(imported),
	})
}

// parseGateRows validates the sheet and builds the gate set. Row numbers in
// errors are 1-based and include the header, matching what the operator
// sees in their spreadsheet.
func parseGateRows(rows [][]string) ([]models.VersionGate, error) {
	var gates []models.VersionGate
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		rowNum := i + 2
		if len(row) == 0 {
			continue
		}

		gate := models.VersionGate{Platform: strings.ToLower(strings.TrimSpace(cell(row, 0)))}
		if gate.Platform == "" {
			continue
		}
		if seen[gate.Platform] {
			return nil, fmt.Errorf("row %d: duplicate platform %q", rowNum, gate.Platform)
		}
		seen[gate.Platform] = true

		gate.LatestVersion = strings.TrimSpace(cell(row, 1))
		gate.MinimumVersion = strings.TrimSpace(cell(row, 2))
		gate.ForceMinimumVersion = strings.TrimSpace(cell(row, 3))
		gate.StoreURL = strings.TrimSpace(cell(row, 4))
		gate.MaintenanceMessage = strings.TrimSpace(cell(row, 6))
		gate.ReleaseNotes = strings.TrimSpace(cell(row, 7))

		for field, value := range map[string]string{
			"latest_version":        gate.LatestVersion,
			"minimum_version":       gate.MinimumVersion,
			"force_minimum_version": gate.ForceMinimumVersion,
		} {
			if _, err := semver.Parse(value); err != nil {
				return nil, fmt.Errorf("row %d: invalid %s %q", rowNum, field, value)
			}
		}

		if raw := strings.TrimSpace(cell(row, 5)); raw != "" {
			maintenance, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid maintenance flag %q", rowNum, raw)
			}
			gate.MaintenanceMode = maintenance
		}

		gates = append(gates, gate)
	}

	if len(gates) == 0 {
		return nil, fmt.Errorf("no gates found in file")
	}

	return gates, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func readFromGoogleSheet(ctx context.Context, url, credentialsFile string) ([][]string, error) {
	re := regexp.MustCompile(`\/d\/([a-zA-Z0-9-_]+)`)
	matches := re.FindStringSubmatch(url)
	if len(matches) < 2 {
		return nil, fmt.Errorf("invalid Google Sheets URL")
	}
	spreadsheetID := matches[1]

	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to init Google API: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	var rows [][]string
	for _, row := range resp.Values {
		var strRow []string
		for _, cell := range row {
			strRow = append(strRow, fmt.Sprintf("%v", cell))
		}
		rows = append(rows, strRow)
	}

	return rows, nil
}
