package sheets

// RawRows shapes a posted sync payload into header->value maps. Rows
// arrive either as objects, or as arrays paired with a header row
// taken from headers when given, otherwise from the first array row.
func RawRows(rows []interface{}, headers []interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	var headerNames []string

	for _, h := range headers {
		headerNames = append(headerNames, text(h))
	}

	for _, row := range rows {
		switch r := row.(type) {
		case map[string]interface{}:
			out = append(out, r)
		case []interface{}:
			if headerNames == nil {
				headerNames = make([]string, 0, len(r))
				for _, h := range r {
					headerNames = append(headerNames, text(h))
				}
				continue
			}
			m := make(map[string]interface{}, len(headerNames))
			for i, name := range headerNames {
				if name == "" || i >= len(r) {
					continue
				}
				m[name] = r[i]
			}
			out = append(out, m)
		}
	}

	return out
}
