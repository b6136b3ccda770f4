// Package sheets ingests linehaul rows from the dispatch Google Sheet.
// Header names vary between sheet revisions, so every key is reduced
// to a normalized token and mapped through a fixed alias table.
package sheets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fleetops/dispatch-board/internal/models"
)

// Normalized header token -> canonical field.
var headerAliases = map[string]string{
	"dispatchdate": "dispatch_date",
	"date":         "dispatch_date",

	"origin":    "origin",
	"originhub": "origin",
	"hub":       "origin",

	"todeststation":     "to_dest_station_name",
	"todeststationname": "to_dest_station_name",
	"destination":       "to_dest_station_name",
	"deststation":       "to_dest_station_name",

	"tripnumber": "trip_number",
	"tripno":     "trip_number",
	"trip":       "trip_number",

	"tonumber": "to_number",
	"tono":     "to_number",

	"toparcelquantity": "to_parcel_quantity",
	"parcelquantity":   "to_parcel_quantity",
	"parcelqty":        "to_parcel_quantity",

	"loadedtimestamp": "loaded_timestamp",
	"loadedtime":      "loaded_timestamp",
	"loadtime":        "loaded_timestamp",

	"operator": "operator",
	"ops":      "operator",
	"opspic":   "operator",

	"departuretimestamp": "departure_timestamp",
	"departuretime":      "departure_timestamp",
	"departtime":         "departure_timestamp",

	"trucksize": "truck_size",
	"fleetsize": "truck_size",

	"vehiclenumber": "vehicle_number",
	"vehicleno":     "vehicle_number",
	"platenumber":   "vehicle_number",
	"plate":         "vehicle_number",

	"drivername": "driver_name",
	"driver":     "driver_name",
}

var (
	nonAlnum        = regexp.MustCompile(`[^a-z0-9]+`)
	operatorPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+)$`)
)

// Spreadsheet date serials count days from 1899-12-30; serial 25569
// is the Unix epoch.
const serialEpochOffset = 25569

const rowKeyDelimiter = "|"

// ParseRow maps one raw sheet row to a record, or nil when the row has
// no resolvable trip number. A nil return is counted as ignored by the
// caller, never as a failure.
func ParseRow(raw map[string]interface{}) *models.SheetRecord {
	fields := canonicalize(raw)

	trip := strings.ToUpper(text(fields["trip_number"]))
	if trip == "" {
		return nil
	}

	record := &models.SheetRecord{
		TripNumber:        trip,
		Origin:            text(fields["origin"]),
		ToDestStationName: text(fields["to_dest_station_name"]),
		TONumber:          text(fields["to_number"]),
		TruckSize:         text(fields["truck_size"]),
		VehicleNumber:     text(fields["vehicle_number"]),
		DriverName:        text(fields["driver_name"]),
	}

	record.DispatchDate = parseSheetTime(fields["dispatch_date"])
	record.LoadedTimestamp = parseSheetTime(fields["loaded_timestamp"])
	record.DepartureTimestamp = parseSheetTime(fields["departure_timestamp"])
	record.TOParcelQuantity = parseQuantity(fields["to_parcel_quantity"])
	record.OperatorOpsID, record.OperatorName = parseOperator(text(fields["operator"]))

	record.RowKey = rowKey(record, raw)

	if payload, err := json.Marshal(raw); err == nil {
		record.RawPayload = string(payload)
	}

	return record
}

// NormalizeHeader lower-cases a header and strips everything that is
// not a letter or digit, so "Trip Number", "trip_number" and
// "TripNumber" collapse to the same token.
func NormalizeHeader(header string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(header), "")
}

func canonicalize(raw map[string]interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		canonical, ok := headerAliases[NormalizeHeader(key)]
		if !ok {
			continue
		}
		if existing, taken := fields[canonical]; !taken || text(existing) == "" {
			fields[canonical] = value
		}
	}
	return fields
}

// "[OPS123] Jane Doe" -> ("OPS123", "Jane Doe"). Without the bracket
// prefix the whole string is the name and the ops id stays null.
func parseOperator(operator string) (*string, *string) {
	if operator == "" {
		return nil, nil
	}
	if m := operatorPattern.FindStringSubmatch(operator); m != nil {
		opsID := strings.TrimSpace(m[1])
		name := strings.TrimSpace(m[2])
		return &opsID, &name
	}
	return nil, &operator
}

// parseSheetTime accepts a spreadsheet serial (days since the sheet
// epoch) or a free-form date string. Unparseable values become nil
// rather than erroring the row.
func parseSheetTime(v interface{}) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return serialToTime(t)
	case int:
		return serialToTime(float64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToTime(serial)
		}
		for _, layout := range sheetDateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				parsed = parsed.UTC()
				return &parsed
			}
		}
		return nil
	default:
		return nil
	}
}

var sheetDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

func serialToTime(serial float64) *time.Time {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	ms := (serial - serialEpochOffset) * 86400 * 1000
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

func parseQuantity(v interface{}) *int {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}

// rowKey derives the stable idempotency key the storage layer upserts
// on. Re-syncing the same logical record must produce the same key;
// the derivation is a bit-exact contract with previously stored data.
func rowKey(record *models.SheetRecord, raw map[string]interface{}) string {
	var parts []string
	if record.DispatchDate != nil {
		parts = append(parts, record.DispatchDate.Format("2006-01-02"))
	}
	if record.TripNumber != "" {
		parts = append(parts, record.TripNumber)
	}
	if record.TONumber != "" {
		parts = append(parts, record.TONumber)
	}
	if record.LoadedTimestamp != nil {
		parts = append(parts, record.LoadedTimestamp.Format("2006-01-02T15:04:05.000Z"))
	}

	if key := strings.Join(parts, rowKeyDelimiter); key != "" {
		return key
	}
	if raw != nil {
		return contentHash(raw)
	}
	return hashString(record.TripNumber)
}

// contentHash digests the raw row as key-sorted k=v lines so the hash
// does not depend on map iteration order.
func contentHash(raw map[string]interface{}) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, text(raw[k]))
	}
	return hashString(b.String())
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func text(v interface{}) string {
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
