// Package upload pushes local documents into the Vectorize pipeline.
// Sources are read through afs so file://, mem:// and bare local paths all work.
package upload

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	afsurl "github.com/viant/afs/url"

	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/report"
	"github.com/lexiqai/rag-agent/internal/resilience"
	"github.com/lexiqai/rag-agent/internal/vectorize"
)

// SupportedFormats maps accepted extensions to the content type sent to Vectorize
var SupportedFormats = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".csv":  "text/csv",
}

// FileAPI is the two-step upload collaborator
type FileAPI interface {
	StartFileUpload(ctx context.Context, name, contentType string) (*vectorize.StartFileUploadResponse, error)
	PutFile(ctx context.Context, uploadURL, contentType string, data []byte) error
}

// Outcome describes one attempted file
type Outcome struct {
	Location string
	Name     string
	FileID   string
	Bytes    int
	Err      error
}

// Succeeded reports whether the file reached the pipeline
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Summary aggregates a batch upload
type Summary struct {
	Outcomes []Outcome
}

// Succeeded counts successful uploads
func (s Summary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Total is the number of files attempted
func (s Summary) Total() int {
	return len(s.Outcomes)
}

// Uploader reads files and hands them to the pipeline
type Uploader struct {
	api    FileAPI
	fs     afs.Service
	sink   report.Sink
	logger zerolog.Logger
}

// New creates an uploader backed by the default afs service
func New(api FileAPI, sink report.Sink) *Uploader {
	return NewWithStorage(api, afs.New(), sink)
}

// NewWithStorage creates an uploader reading through fs
func NewWithStorage(api FileAPI, fs afs.Service, sink report.Sink) *Uploader {
	if sink == nil {
		sink = report.Discard
	}
	return &Uploader{
		api:    api,
		fs:     fs,
		sink:   sink,
		logger: observability.ComponentLogger("upload"),
	}
}

// ContentType returns the MIME type for name's extension
func ContentType(name string) (string, bool) {
	ct, ok := SupportedFormats[strings.ToLower(path.Ext(name))]
	return ct, ok
}

// SupportedExtensions lists the accepted extensions in sorted order
func SupportedExtensions() []string {
	exts := make([]string, 0, len(SupportedFormats))
	for ext := range SupportedFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// UploadFile uploads a single file. The error is also stored on the Outcome and reported to the sink.
func (u *Uploader) UploadFile(ctx context.Context, location string) Outcome {
	location = normalize(location)
	name := path.Base(afsurl.Path(location))
	out := Outcome{Location: location, Name: name}

	fail := func(err error) Outcome {
		out.Err = err
		u.sink.Report(report.Error, fmt.Sprintf("Failed to upload %s: %v", name, err))
		u.logger.Warn().Err(err).Str("location", location).Msg("Upload failed")
		observability.RecordUpload(int64(out.Bytes), false)
		observability.RecordError(resilience.Classify(err), "upload")
		return out
	}

	exists, err := u.fs.Exists(ctx, location)
	if err != nil {
		return fail(err)
	}
	if !exists {
		return fail(fmt.Errorf("file not found: %s", afsurl.Path(location)))
	}

	contentType, ok := ContentType(name)
	if !ok {
		return fail(fmt.Errorf("unsupported file type %q (supported: %s)",
			path.Ext(name), strings.Join(SupportedExtensions(), ", ")))
	}

	u.sink.Report(report.Loading, "Uploading: "+name)

	data, err := u.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return fail(fmt.Errorf("failed to read file: %w", err))
	}
	out.Bytes = len(data)

	started, err := u.api.StartFileUpload(ctx, name, contentType)
	if err != nil {
		return fail(fmt.Errorf("failed to start upload: %w", err))
	}
	out.FileID = started.FileID

	if err := u.api.PutFile(ctx, started.UploadURL, contentType, data); err != nil {
		return fail(err)
	}

	u.logger.Info().
		Str("file", name).
		Str("file_id", started.FileID).
		Int("bytes", out.Bytes).
		Msg("File uploaded")
	observability.RecordUpload(int64(out.Bytes), true)
	u.sink.Report(report.Success, "Upload successful: "+name)
	return out
}

// UploadFiles uploads each path in turn. Patterns containing glob metacharacters
// are expanded against the local filesystem; a pattern matching nothing is reported and skipped.
func (u *Uploader) UploadFiles(ctx context.Context, patterns []string) Summary {
	var summary Summary
	for _, p := range patterns {
		locations, err := expand(p)
		if err != nil {
			u.sink.Report(report.Error, fmt.Sprintf("Invalid pattern %s: %v", p, err))
			continue
		}
		if len(locations) == 0 {
			u.sink.Report(report.Warning, "No files match "+p)
			continue
		}
		for _, loc := range locations {
			if ctx.Err() != nil {
				return summary
			}
			summary.Outcomes = append(summary.Outcomes, u.UploadFile(ctx, loc))
		}
	}
	if summary.Total() > 1 {
		u.reportSummary(summary)
	}
	return summary
}

// UploadFolder uploads every supported file directly inside folder, in name order.
// Subdirectories are not descended into.
func (u *Uploader) UploadFolder(ctx context.Context, folder string) (Summary, error) {
	folder = normalize(folder)

	exists, err := u.fs.Exists(ctx, folder)
	if err != nil {
		return Summary{}, err
	}
	if !exists {
		err := fmt.Errorf("folder not found: %s", afsurl.Path(folder))
		u.sink.Report(report.Error, err.Error())
		return Summary{}, err
	}

	objects, err := u.fs.List(ctx, folder)
	if err != nil {
		u.sink.Report(report.Error, fmt.Sprintf("Failed to list %s: %v", afsurl.Path(folder), err))
		return Summary{}, err
	}

	var locations []string
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		if _, ok := ContentType(obj.Name()); ok {
			locations = append(locations, obj.URL())
		}
	}
	sort.Slice(locations, func(i, j int) bool {
		return path.Base(locations[i]) < path.Base(locations[j])
	})

	if len(locations) == 0 {
		u.sink.Report(report.Warning, fmt.Sprintf("No supported files found in %s (supported: %s)",
			afsurl.Path(folder), strings.Join(SupportedExtensions(), ", ")))
		return Summary{}, nil
	}
	u.sink.Report(report.Info, fmt.Sprintf("Found %d files to upload", len(locations)))

	var summary Summary
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Outcomes = append(summary.Outcomes, u.UploadFile(ctx, loc))
	}
	u.reportSummary(summary)
	return summary, nil
}

func (u *Uploader) reportSummary(s Summary) {
	kind := report.Success
	if s.Succeeded() < s.Total() {
		kind = report.Warning
	}
	u.sink.Report(kind, fmt.Sprintf("Uploaded %d/%d files", s.Succeeded(), s.Total()))
}

// normalize turns a bare local path into an absolute file:// URL
func normalize(location string) string {
	if afsurl.Scheme(location, "") != "" {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		location = abs
	}
	return file.Scheme + "://" + filepath.ToSlash(location)
}

func expand(pattern string) ([]string, error) {
	if afsurl.Scheme(pattern, "") != "" || !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
