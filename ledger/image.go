package ledger

import "strings"

// PlaceholderImageURL stands in for image references that cannot be displayed
const PlaceholderImageURL = "https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=400"

// SafeImageURL keeps data:image, blob and http(s) references and replaces
// anything else with PlaceholderImageURL.
func SafeImageURL(ref string) string {
	for _, prefix := range []string{"data:image/", "blob:", "http"} {
		if strings.HasPrefix(ref, prefix) {
			return ref
		}
	}
	return PlaceholderImageURL
}
