// Package templates manages uploaded invoice document templates: a markup
// file plus a stylesheet stored in a per-template directory, and the cached
// list of placeholder fields the markup references.
package templates

// Template describes a stored document template.
type Template struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Dir            string   `json:"template_dir"`
	MarkupFile     string   `json:"html_filename"`
	StylesheetFile string   `json:"css_filename"`
	Fields         []string `json:"fields"`
}

// UploadInput carries a full template upload.
type UploadInput struct {
	Name           string
	MarkupFile     string
	Markup         []byte
	StylesheetFile string
	Stylesheet     []byte
}

// UpdateInput carries a partial template update. Nil byte slices mean the
// corresponding file was not re-uploaded.
type UpdateInput struct {
	Name           string
	MarkupFile     string
	Markup         []byte
	StylesheetFile string
	Stylesheet     []byte
}
