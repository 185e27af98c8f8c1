package model

import "strings"

// NumericID strips a "gid://shopify/<Type>/" prefix, leaving bare IDs untouched.
func NumericID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id[strings.LastIndex(id, "/")+1:]
	}
	return id
}

// GID builds a Shopify global ID for typ from a numeric or global id.
func GID(typ, id string) string {
	return "gid://shopify/" + typ + "/" + NumericID(id)
}
