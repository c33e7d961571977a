// Package formats registers the supported POI source formats with the core
// registry. Import it for its side effect:
//
//	import _ "github.com/JonMunkholm/poi-importer/internal/core/formats"
package formats

import "github.com/JonMunkholm/poi-importer/internal/core"

func init() {
	registerDelimited()
	registerDocument()
	registerMarkup()
}

func registerDelimited() {
	core.Register(core.FormatDefinition{
		Format:    core.FormatDelimited,
		Extension: ".csv",
		Label:     "Delimited text (CSV)",
		Parse:     ParseDelimited,
		Normalize: Normalizer(core.FormatDelimited),
	})
}

func registerDocument() {
	core.Register(core.FormatDefinition{
		Format:    core.FormatDocument,
		Extension: ".json",
		Label:     "Structured document (JSON)",
		Parse:     ParseDocument,
		Normalize: Normalizer(core.FormatDocument),
	})
}

func registerMarkup() {
	core.Register(core.FormatDefinition{
		Format:    core.FormatMarkup,
		Extension: ".xml",
		Label:     "Markup (XML)",
		Parse:     ParseMarkup,
		Normalize: Normalizer(core.FormatMarkup),
	})
}
