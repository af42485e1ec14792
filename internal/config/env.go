package config

import "strings"

// FINDAVOTE_BACKEND_BASEURL -> backend.baseurl
var envReplacer = strings.NewReplacer(".", "_")
