package folio

import "embed"

// EmbeddedAssets holds files every built site gets unless its source
// provides its own: the page script at embedded/site.js.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

const siteScript = "embedded/site.js"
