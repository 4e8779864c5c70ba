package starred

import "strings"

// hasNextLink reports whether an RFC 8288 Link header value advertises a
// rel="next" target, e.g.
//
//	<https://api.github.com/user/starred?page=2>; rel="next", <...>; rel="last"
func hasNextLink(header string) bool {
	for _, link := range strings.Split(header, ",") {
		parts := strings.Split(link, ";")
		if len(parts) < 2 {
			continue
		}
		for _, param := range parts[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
				if strings.EqualFold(rel, "next") {
					return true
				}
			}
		}
	}
	return false
}
