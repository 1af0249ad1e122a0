package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/models"
)

const wbsSheet = "WBS"

type wbsRow struct {
	Phase       string
	Workstream  string
	Task        string
	Description string
	Owner       string
	// CountKey names the component count substituted for {count}.
	CountKey string
}

var defaultWBS = []wbsRow{
	{"Prepare", "Project Setup", "Kickoff & logistics", "Create shared channels/repo", "PM", ""},
	{"Prepare", "Access", "Accounts & VPN", "Secure access for engineers", "PM", ""},
	{"Build", "Horizon", "Connection Servers", "Build CS VMs (x{count})", "ENG", "cs_count"},
	{"Build", "UAG", "Unified Access Gateways", "Deploy UAGs (x{count})", "ENG", "uag_count"},
	{"Build", "TrueSSO", "Enrollment Servers", "Deploy Enrollment Servers (x{count})", "ENG", "enroll_count"},
	{"Build", "App Volumes", "Managers", "Deploy AV Managers (x{count})", "ENG", "av_mgr_count"},
	{"Integrate", "Certificates", "PKI", "Install server certs", "ENG", ""},
	{"Integrate", "Networking", "F5/LB", "VIPs, monitors, pools", "NET", ""},
	{"Validate", "Testing", "Functional", "Provision pool, login tests", "QA", ""},
	{"Cutover", "Go-Live", "Phased rollout", "Migrate users", "PM", ""},
	{"KT", "Handover", "Docs & Training", "Runbook & KT sessions", "PM", ""},
}

var wbsHeader = []interface{}{"Phase", "Workstream", "Task", "Description", "Owner", "Depends On"}

var wbsWidths = []struct {
	col   string
	width float64
}{
	{"A", 14}, {"B", 18}, {"C", 28}, {"D", 60}, {"E", 14}, {"F", 14},
}

// componentCount reads a count from the record, trying the PDG pod1 key as
// well. Missing or non-numeric values count as 1.
func componentCount(rec models.Submission, key string) int {
	for _, k := range []string{key, "pod1_" + key} {
		if s := strings.TrimSpace(rec.Text(k)); s != "" {
			return intake.ParseInt(s, 1)
		}
	}
	return 1
}

// WBS builds the work breakdown spreadsheet for a record.
func WBS(rec models.Submission) (Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", wbsSheet)

	stamp := timestamp(rec).Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:    "Work Breakdown Structure",
		Creator:  "vdi-docgen",
		Created:  stamp,
		Modified: stamp,
	}); err != nil {
		return Artifact{}, fmt.Errorf("wbs props: %w", err)
	}

	if err := f.SetSheetRow(wbsSheet, "A1", &wbsHeader); err != nil {
		return Artifact{}, fmt.Errorf("wbs header: %w", err)
	}
	for i, row := range defaultWBS {
		desc := row.Description
		if row.CountKey != "" {
			desc = strings.ReplaceAll(desc, "{count}", strconv.Itoa(componentCount(rec, row.CountKey)))
		}
		cells := []interface{}{row.Phase, row.Workstream, row.Task, desc, row.Owner, ""}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return Artifact{}, err
		}
		if err := f.SetSheetRow(wbsSheet, cell, &cells); err != nil {
			return Artifact{}, fmt.Errorf("wbs row %d: %w", i+2, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return Artifact{}, fmt.Errorf("wbs style: %w", err)
	}
	if err := f.SetCellStyle(wbsSheet, "A1", "F1", bold); err != nil {
		return Artifact{}, fmt.Errorf("wbs style: %w", err)
	}
	for _, w := range wbsWidths {
		if err := f.SetColWidth(wbsSheet, w.col, w.col, w.width); err != nil {
			return Artifact{}, fmt.Errorf("wbs width %s: %w", w.col, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(wbsHeader), len(defaultWBS)+1)
	if err != nil {
		return Artifact{}, err
	}
	if err := f.AutoFilter(wbsSheet, "A1:"+last, nil); err != nil {
		return Artifact{}, fmt.Errorf("wbs filter: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, fmt.Errorf("wbs write: %w", err)
	}
	return Artifact{
		Name:        WBSName,
		Filename:    Filename(rec, "WBS", "xlsx"),
		ContentType: ContentTypeXLSX,
		Body:        buf.Bytes(),
	}, nil
}
