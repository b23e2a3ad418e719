package permission

// HasPermission reports whether the granted set authorizes the required
// permission. Granted entries are assumed to come from storage in canonical
// form; entries that fail to parse are ignored rather than granting anything.
func HasPermission(granted []string, required string) bool {
	req, err := Parse(required)
	if err != nil {
		return false
	}
	for _, raw := range granted {
		g, err := Parse(raw)
		if err != nil {
			continue
		}
		if Covers(g, req) {
			return true
		}
	}
	return false
}
