package reports

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/rotisserie/eris"

	"coopdash/internal/orders"
)

// BodyTableName names the source built from an HTML body that carries a table.
const BodyTableName = "body.html"

type Extracted struct {
	Subject string
	From    string
	// Sources holds spreadsheet attachments and, when present, the HTML body table.
	Sources []orders.Source
	// AttachmentNames lists every attachment file name, spreadsheet or not.
	AttachmentNames []string
}

// ExtractReportAttachments parses a raw RFC 822 message and keeps attachments whose extension is in extensions.
func ExtractReportAttachments(raw []byte, extensions []string) (Extracted, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return Extracted{}, eris.Wrap(err, "reports: read envelope")
	}

	out := Extracted{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
	}

	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)
	seen := map[string]int{}
	for _, att := range parts {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			continue
		}
		out.AttachmentNames = append(out.AttachmentNames, filename)
		if !hasExtension(filename, extensions) || len(att.Content) == 0 {
			continue
		}
		seen[filename]++
		name := filename
		if n := seen[filename]; n > 1 {
			ext := filepath.Ext(filename)
			name = strings.TrimSuffix(filename, ext) + "_" + strconv.Itoa(n) + ext
		}
		out.Sources = append(out.Sources, orders.Source{Name: name, Content: att.Content})
	}

	if strings.Contains(strings.ToLower(env.HTML), "<table") {
		out.Sources = append(out.Sources, orders.Source{Name: BodyTableName, Content: []byte(env.HTML)})
	}

	return out, nil
}

func hasExtension(filename string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
