package controller

import "html/template"

// Section is an independently rendered part of a page, such as a sidebar.
type Section interface {
	// TemplatePath returns the section's template path relative to the
	// template root, given the name of the controller rendering it.
	TemplatePath(controllerName string) string

	// SetHTMLContent stores the rendered section.
	SetHTMLContent(html string)

	// HTMLContent returns the rendered section.
	HTMLContent() template.HTML
}

// SectionContent stores rendered section content. Embed it to implement the
// content half of Section.
type SectionContent struct {
	html string
}

// SetHTMLContent implements Section.
func (s *SectionContent) SetHTMLContent(html string) {
	s.html = html
}

// HTMLContent implements Section.
func (s *SectionContent) HTMLContent() template.HTML {
	return template.HTML(s.html)
}
