package document

import (
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/projectdiscovery/gologger"
)

const (
	FamilyOpenAPI = "OpenAPI"
	FamilySwagger = "Swagger"
)

// Dialect identifies which specification family and version a document
// declares. The zero value means the document declared neither.
type Dialect struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Known reports whether a family was detected.
func (d Dialect) Known() bool { return d.Family != "" }

func (d Dialect) String() string {
	if !d.Known() {
		return "unknown"
	}
	if d.Version == "" {
		return d.Family
	}
	return d.Family + " " + d.Version
}

// DetectDialect inspects the document header. Detection is best effort:
// anything libopenapi cannot classify yields the zero Dialect.
func DetectDialect(data []byte) Dialect {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		gologger.Debug().Msgf("dialect detection skipped: %v", err)
		return Dialect{}
	}
	info := doc.GetSpecInfo()
	if info == nil {
		return Dialect{}
	}

	switch strings.ToLower(info.SpecType) {
	case "openapi":
		return Dialect{Family: FamilyOpenAPI, Version: info.Version}
	case "swagger":
		return Dialect{Family: FamilySwagger, Version: info.Version}
	}
	return Dialect{}
}
