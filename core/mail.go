package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

const (
	textExt = ".txt"
	htmlExt = ".gohtml"
)

var (
	templates   = make(map[string]*emailTemplate) // by name, without ext
	templatesMu sync.RWMutex
)

// emailTemplate holds the variants of a template; either may be missing.
type emailTemplate struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

type (
	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) template() *emailTemplate {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	if tmpl, ok := templates[m.TemplateName]; ok {
		return tmpl
	}
	return new(emailTemplate)
}

// Render fills TextContent & HTMLContent in from BodyStr or from the message's template.
// An unknown template renders nothing.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	tmpl := m.template()
	var buf bytes.Buffer
	if tmpl.text != nil && m.BodyStr == "" {
		if err := tmpl.text.Execute(&buf, m.TemplateData); err != nil {
			return err
		}
		m.TextContent = buf.String()
		buf.Reset()
	}
	if tmpl.html != nil {
		if err := tmpl.html.Execute(&buf, m.TemplateData); err != nil {
			return err
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

// Attach reads `r` as a base64 encoded attachment. Its content type is sniffed unless given.
func (m *EmailMessage) Attach(r io.Reader, filename string, contentType ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	ct := http.DetectContentType(content)
	if len(contentType) > 0 {
		ct = contentType[0]
	}
	m.Attachments = append(m.Attachments, Attachment{
		Content:     bytes.NewBufferString(base64.StdEncoding.EncodeToString(content)),
		ContentType: ct,
		Filename:    filename,
	})
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses every `name.txt` & `name.gohtml` template found under `dir`.
// Files starting with "_" are base layouts shared by all templates of the same extension.
func ParseEmailTemplates(fsys fs.FS, dir string, logger Logger) {
	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
		return
	}

	templatesMu.Lock()
	defer templatesMu.Unlock()

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || (ext != textExt && ext != htmlExt) {
			continue
		}
		base := path.Join(dir, "_base"+ext)

		name := strings.TrimSuffix(fname, ext)
		tmpl, ok := templates[name]
		if !ok {
			tmpl = new(emailTemplate)
			templates[name] = tmpl
		}
		if ext == textExt {
			tmpl.text, err = texttmpl.ParseFS(fsys, base, fp)
			if err == nil {
				tmpl.text.Option("missingkey=error")
			}
		} else {
			tmpl.html, err = htmltmpl.ParseFS(fsys, base, fp)
			if err == nil {
				tmpl.html.Option("missingkey=error")
			}
		}
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fname, err), err)
		}
	}
}
