package actions

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/flash"
	"github.com/louisbranch/avo/internal/services/admin/httpx"
	"github.com/louisbranch/avo/internal/services/admin/routepath"
	"github.com/louisbranch/avo/internal/services/admin/templates"
	"go.uber.org/zap"
)

const (
	formResourceName = "resource_name"
	formActionID     = "action_id"
	fieldPrefix      = "fields["
)

// FormFields collects submitted "fields[<id>]" values. The last value wins
// when a key repeats, so a checked box overrides its hidden fallback.
func FormFields(r *http.Request) map[string]string {
	fields := map[string]string{}
	if r == nil {
		return fields
	}
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, fieldPrefix) || !strings.HasSuffix(key, "]") || len(values) == 0 {
			continue
		}
		id := strings.TrimSpace(key[len(fieldPrefix) : len(key)-1])
		if id == "" {
			continue
		}
		fields[id] = values[len(values)-1]
	}
	return fields
}

// checkFormIdentity rejects forms whose hidden resource or action disagree
// with the route.
func checkFormIdentity(r *http.Request, resourceName string, actionID string) error {
	if formResource := strings.TrimSpace(r.PostForm.Get(formResourceName)); formResource != "" && formResource != strings.TrimSpace(resourceName) {
		return apperrors.WithMetadata(apperrors.CodeActionIDMismatch,
			fmt.Sprintf("form resource %q does not match route resource %q", formResource, resourceName),
			map[string]string{"resource": resourceName})
	}
	if formAction := strings.TrimSpace(r.PostForm.Get(formActionID)); formAction != "" && formAction != strings.TrimSpace(actionID) {
		return apperrors.WithMetadata(apperrors.CodeActionIDMismatch,
			fmt.Sprintf("form action %q does not match route action %q", formAction, actionID),
			map[string]string{"action_id": actionID})
	}
	return nil
}

func (d *Dispatcher) formView(page templates.PageContext, tgt target, def action.Definition, values map[string]string, resourceIDs string, selectedQuery string, records int) templates.ActionFormView {
	fields := make([]templates.FormField, 0, len(def.Fields))
	for _, field := range def.Fields {
		fields = append(fields, templates.FormField{
			ID:       field.ID,
			Label:    templates.T(page.Loc, field.Label),
			Kind:     string(field.Kind),
			Value:    values[field.ID],
			Required: field.Required,
			Options:  field.Options,
		})
	}
	view := templates.ActionFormView{
		ResourceName:  tgt.resource.Name(),
		ResourceTitle: templates.T(page.Loc, tgt.resource.Label()),
		ActionID:      tgt.id,
		Title:         templates.T(page.Loc, def.Label),
		PostURL:       routepath.ResourceAction(tgt.resource.Name(), tgt.id),
		CancelURL:     tgt.resource.IndexPath(),
		Fields:        fields,
		Standalone:    def.Standalone,
		RecordCount:   records,
	}
	if def.Confirm != "" {
		view.Confirm = templates.T(page.Loc, def.Confirm)
	}
	if !def.Standalone {
		view.ResourceIDs = resourceIDs
		view.SelectedQuery = selectedQuery
	}
	return view
}

// sendDownload streams a download. It returns an error only before anything
// has been written.
func (d *Dispatcher) sendDownload(w http.ResponseWriter, r *http.Request, dl action.Download) error {
	filename := strings.TrimSpace(dl.Filename)
	if filename == "" && dl.Path != "" {
		filename = filepath.Base(dl.Path)
	}
	if filename == "" {
		filename = "download"
	}
	contentType := strings.TrimSpace(dl.ContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if dl.Data != nil {
		setDownloadHeaders(w, filename, contentType)
		w.Header().Set("Content-Length", fmt.Sprint(len(dl.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(dl.Data); err != nil {
			d.logger.Warn("write download", zap.String("filename", filename), zap.Error(err))
		}
		return nil
	}

	file, err := os.Open(dl.Path)
	if err != nil {
		return fmt.Errorf("open download: %w", err)
	}
	defer func() {
		_ = file.Close()
		if dl.RemoveAfter {
			if err := os.Remove(dl.Path); err != nil {
				d.logger.Warn("remove download", zap.String("path", dl.Path), zap.Error(err))
			}
		}
	}()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat download: %w", err)
	}
	setDownloadHeaders(w, filename, contentType)
	http.ServeContent(w, r, filename, info.ModTime(), file)
	return nil
}

func setDownloadHeaders(w http.ResponseWriter, filename string, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

func (d *Dispatcher) flashAndRedirect(w http.ResponseWriter, r *http.Request, outcome action.Outcome) {
	notices := make([]flash.Notice, 0, len(outcome.Messages))
	for _, msg := range outcome.Messages {
		notices = append(notices, flash.Notice{Kind: noticeKind(msg.Severity), Body: msg.Body})
	}
	flash.Write(w, r, notices, d.scheme)
	httpx.WriteRedirect(w, r, outcome.Location)
}

func noticeKind(severity action.Severity) flash.Kind {
	switch severity {
	case action.SeveritySuccess:
		return flash.KindSuccess
	case action.SeverityWarning:
		return flash.KindWarning
	case action.SeverityError:
		return flash.KindError
	default:
		return flash.KindInfo
	}
}
