package action

// Kind is the declared response type.
type Kind string

const (
	KindReload   Kind = "reload"
	KindRedirect Kind = "redirect"
	KindDownload Kind = "download"
)

// LocationContext is what a deferred location can read when it is resolved.
type LocationContext struct {
	Resource Resource
	User     User
	Records  []Record
	Fields   map[string]string
	// Referer is the page the request came from, if known.
	Referer string
}

// Location is either a literal path or one computed when the response is
// emitted.
type Location struct {
	literal  string
	deferred func(LocationContext) string
}

// Literal returns a fixed location.
func Literal(path string) Location {
	return Location{literal: path}
}

// Deferred returns a location evaluated at response time.
func Deferred(fn func(LocationContext) string) Location {
	return Location{deferred: fn}
}

// IsDeferred reports whether the location is computed at response time.
func (l Location) IsDeferred() bool {
	return l.deferred != nil
}

// Resolve returns the concrete location.
func (l Location) Resolve(lc LocationContext) string {
	if l.deferred != nil {
		return l.deferred(lc)
	}
	return l.literal
}

// Download names a file to send back instead of a page.
type Download struct {
	// Path is a file on disk. Ignored when Data is set.
	Path     string
	Data     []byte
	Filename string
	// ContentType defaults to application/octet-stream.
	ContentType string
	// RemoveAfter deletes Path once it has been sent.
	RemoveAfter bool
}

// Response is an action's declared outcome.
type Response struct {
	Kind     Kind
	Location Location
	Download Download
	Messages []Message
}

// Reload answers by sending the operator back where they came from.
func Reload(messages ...Message) Response {
	return Response{Kind: KindReload, Messages: messages}
}

// Redirect answers with a redirect to location.
func Redirect(location Location, messages ...Message) Response {
	return Response{Kind: KindRedirect, Location: location, Messages: messages}
}

// DownloadFile answers with a file download.
func DownloadFile(path string, filename string, messages ...Message) Response {
	return Response{
		Kind:     KindDownload,
		Download: Download{Path: path, Filename: filename},
		Messages: messages,
	}
}

// DownloadData answers with an in-memory download.
func DownloadData(data []byte, filename string, contentType string, messages ...Message) Response {
	return Response{
		Kind:     KindDownload,
		Download: Download{Data: data, Filename: filename, ContentType: contentType},
		Messages: messages,
	}
}
