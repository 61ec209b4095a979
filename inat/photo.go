package inat

import "strings"

const largeSize = "large"

// photoSizes is checked in order; the first match is rewritten.
var photoSizes = []string{"square", "small", "medium", "thumb"}

// LargePhotoURL rewrites an iNaturalist photo URL such as
// ".../photos/12345/square.jpg?1715" to the large rendition. URLs that
// already point at the large size, or carry no known size token, are
// returned unchanged.
func LargePhotoURL(u string) string {
	slash := strings.LastIndex(u, "/")
	if slash < 0 {
		return u
	}
	prefix, file := u[:slash+1], u[slash+1:]

	stem := file
	if i := strings.IndexAny(stem, ".?#"); i >= 0 {
		stem = stem[:i]
	}
	if stem == largeSize {
		return u
	}

	for _, size := range photoSizes {
		if stem == size {
			return prefix + largeSize + file[len(size):]
		}
	}
	return u
}
