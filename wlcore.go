package wlcore

import _ "embed"

//go:embed VERSION
var Version string

//go:embed wlcore.toml
var DefaultConfig string
