package model

// Cover kinds. A cover is either an object in our own bucket, a URL some
// external site hosts, or absent entirely
const (
	CoverNone     = "none"
	CoverKey      = "key"
	CoverExternal = "external"
)
