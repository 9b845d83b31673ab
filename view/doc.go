// Package view renders templates and composes pages.
//
// Templates are html/template files addressed by a path relative to the
// template root, without extension:
//
//	<source dir>/<template dir>/<path><extension>
//
// The variable mapping passed to a render call becomes the template's dot,
// so a template reads its variables as {{.title}}. A template that does not
// exist renders as the empty string.
//
// # Pages
//
// A Page is an immutable rendered-output value. Pages are only created by
// the factories Empty, FromHTML, Engine.FromTemplate and Engine.FromLayout.
//
// FromLayout renders a body template first and then the layout template
// with the same variables plus the reserved bodyContent variable:
//
//	page, err := engine.FromLayout("Home/index", view.Vars{"title": "Home"}, "")
//
// The layout includes the body with {{.bodyContent}}.
//
// # Snippets
//
// GetSnippet renders a template and returns its first words as plain text,
// always followed by "...". A word count of -1 returns the whole text.
//
// # Template Functions
//
// Every template has sprig's HTML function map plus markdown, sanitizeHtml,
// humanize and component available.
package view
