package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL combines a base URL with a database name.
// The name is inserted before any query string and sslmode=disable is added
// when no sslmode is present. An empty name returns the base URL unchanged.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")

	var databaseURL string
	if base, query, ok := strings.Cut(baseURL, "?"); ok {
		databaseURL = fmt.Sprintf("%s/%s?%s", base, databaseName, query)
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}
