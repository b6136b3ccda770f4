// Package dispatch validates and coerces dispatch-report rows posted
// by the dashboard. It is pure: no database, no clock, no I/O.
package dispatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fleetops/dispatch-board/internal/models"
)

// RawRow is the loosely-typed client payload. Field names may arrive
// in snake_case or camelCase; values may be strings, JSON numbers or
// booleans.
type RawRow map[string]interface{}

// RowError carries the complete field→message map for one rejected
// row. A row is either fully valid or rejected in whole.
type RowError struct {
	RowIndex int               `json:"row_index"`
	ID       string            `json:"id,omitempty"`
	Errors   map[string]string `json:"errors"`
}

var (
	lhTripPattern = regexp.MustCompile(`^LT[A-Z0-9]+$`)
	platePattern  = regexp.MustCompile(`^[A-Z0-9\s-]+$`)
)

// AllowedStatuses is the report status set. Values outside it fall
// back to Pending silently; the clients rely on that leniency.
var AllowedStatuses = []string{"Pending", "Acknowledged", "Pending_Edit", "Confirmed", "Ongoing"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeRows converts rows into persistable reports. Rows with any
// field error are excluded entirely and reported once in the error
// list. Callers cap the row count before calling; the submission
// endpoint allows at most 10.
func NormalizeRows(rows []RawRow) ([]models.DispatchReport, []RowError) {
	reports := make([]models.DispatchReport, 0, len(rows))
	var rowErrors []RowError

	for i, row := range rows {
		report, errs := normalizeRow(row)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, RowError{
				RowIndex: i,
				ID:       pick(row, "id"),
				Errors:   errs,
			})
			continue
		}
		reports = append(reports, report)
	}

	return reports, rowErrors
}

func normalizeRow(row RawRow) (models.DispatchReport, map[string]string) {
	errs := make(map[string]string)
	var report models.DispatchReport

	report.ClusterName = requireText(row, errs, "cluster_name")
	report.StationName = requireText(row, errs, "station_name")
	report.Region = requireText(row, errs, "region")
	// count_of_to is free text ("3 + 1 adhoc" is a real value), not a number.
	report.CountOfTO = requireText(row, errs, "count_of_to")
	report.DockNumber = requireText(row, errs, "dock_number")
	report.AssignedOpsID = requireText(row, errs, "assigned_ops_id")

	if raw := pick(row, "total_oid_loaded"); raw == "" {
		errs["total_oid_loaded"] = "is required"
	} else if n, err := parseNonNegativeInt(raw); err != nil {
		errs["total_oid_loaded"] = "must be a non-negative integer"
	} else {
		report.TotalOidLoaded = n
	}

	if coerceBool(pickValue(row, "dock_confirmed")) {
		report.DockConfirmed = true
	} else {
		errs["dock_confirmed"] = "dock must be confirmed"
	}

	dockedRaw := pick(row, "actual_docked_time")
	var docked time.Time
	if dockedRaw == "" {
		errs["actual_docked_time"] = "is required"
	} else if t, ok := parseDate(dockedRaw); !ok {
		errs["actual_docked_time"] = "must be a valid date"
	} else {
		docked = t
		report.DockedTime = t
	}

	if departRaw := pick(row, "actual_depart_time"); departRaw != "" {
		if t, ok := parseDate(departRaw); !ok {
			errs["actual_depart_time"] = "must be a valid date"
		} else if !docked.IsZero() && t.Before(docked) {
			errs["actual_depart_time"] = "must not be before actual_docked_time"
		} else {
			report.DepartTime = &t
		}
	}

	if lh := pick(row, "lh_trip_number"); lh != "" {
		upper := strings.ToUpper(lh)
		if !lhTripPattern.MatchString(upper) {
			errs["lh_trip_number"] = "must match LT followed by letters/digits"
		} else {
			report.LHTrip = &upper
		}
	}

	if plate := pick(row, "plate_number"); plate != "" {
		upper := strings.ToUpper(plate)
		if !platePattern.MatchString(upper) {
			errs["plate_number"] = "must contain only letters, digits, spaces and dashes"
		} else {
			report.Plate = &upper
		}
	}

	if processor := pick(row, "processor_name"); processor != "" {
		report.Processor = &processor
	}

	report.FleetSize = pick(row, "fleet_size")
	report.Status = normalizeStatus(pick(row, "status"))

	if len(errs) > 0 {
		return models.DispatchReport{}, errs
	}
	return report, nil
}

// Unrecognized statuses fall back to Pending instead of erroring.
func normalizeStatus(status string) string {
	for _, allowed := range AllowedStatuses {
		if status == allowed {
			return status
		}
	}
	return "Pending"
}

func requireText(row RawRow, errs map[string]string, field string) string {
	v := pick(row, field)
	if v == "" {
		errs[field] = "is required"
	}
	return v
}

// pick returns the first non-empty value among the snake_case field
// name and its camelCase alias, trimmed.
func pick(row RawRow, field string) string {
	return asText(pickValue(row, field))
}

func pickValue(row RawRow, field string) interface{} {
	for _, key := range []string{field, camelCase(field)} {
		if v, ok := row[key]; ok && asText(v) != "" {
			return v
		}
	}
	return nil
}

func camelCase(snake string) string {
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func asText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func parseNonNegativeInt(raw string) (int, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		// Accept "10.0" style numbers the sheet UI sometimes produces.
		f, ferr := strconv.ParseFloat(cleaned, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, err
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// Accepts boolean true, 1/"1", or case-insensitive "true". Anything
// else, including absence, is false.
func coerceBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case int:
		return t == 1
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s == "1" || s == "true"
	default:
		return false
	}
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
