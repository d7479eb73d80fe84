package tiptop

import (
	_ "embed"
)

// serviceDescriptionJSON is the fixed descriptor resource the service
// expects as the first part of every request. It is sent unmodified and is
// read-only after process start.
//
//go:embed serviceDescription.json
var serviceDescriptionJSON []byte

const serviceDescriptionFilename = "serviceDescription.json"
