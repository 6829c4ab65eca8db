// Package export writes ledger snapshots as CSV objects to Cloud Storage.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// OpenWriter returns a writer for bucket/object. Closing it finalizes the
// object.
type OpenWriter func(ctx context.Context, bucket, object string) io.WriteCloser

// OpenReader returns a reader for bucket/object.
type OpenReader func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// Exporter uploads ledger snapshots.
type Exporter struct {
	bucket string
	open   OpenWriter
	read   OpenReader
	now    func() time.Time
	close  func() error
}

// NewGCSExporter creates an Exporter backed by a Cloud Storage client using
// application default credentials.
func NewGCSExporter(ctx context.Context, bucket string) (*Exporter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSExporter: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSExporter: create storage client: %w", err)
	}

	e := NewExporter(bucket,
		func(ctx context.Context, bucket, object string) io.WriteCloser {
			w := client.Bucket(bucket).Object(object).NewWriter(ctx)
			w.ContentType = "text/csv"
			return w
		},
		func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
			return client.Bucket(bucket).Object(object).NewReader(ctx)
		},
	)
	e.close = client.Close
	return e, nil
}

// NewExporter creates an Exporter over arbitrary object I/O.
func NewExporter(bucket string, open OpenWriter, read OpenReader) *Exporter {
	return &Exporter{bucket: bucket, open: open, read: read, now: time.Now}
}

// Close releases the storage client, if any.
func (e *Exporter) Close() error {
	if e.close != nil {
		return e.close()
	}
	return nil
}

// Export writes rows (header first) as CSV and returns the object's gs:// URI.
func (e *Exporter) Export(ctx context.Context, ledger string, rows [][]string) (string, error) {
	object := ObjectName(ledger, e.now(), uuid.New())

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := e.open(ctx, e.bucket, object)
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Export: write csv: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Export: finalize upload: %w", err)
	}
	return "gs://" + e.bucket + "/" + object, nil
}

// Fetch downloads an exported object and parses it back into rows.
func (e *Exporter) Fetch(ctx context.Context, uri string) ([][]string, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := e.read(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("Fetch: parse csv: %w", err)
	}
	return rows, nil
}

// ObjectName is exports/<ledger>/<YYYYMMDD-HHMMSS>-<uuid>.csv in UTC.
func ObjectName(ledger string, at time.Time, id uuid.UUID) string {
	return path.Join("exports", sanitize(ledger), at.UTC().Format("20060102-150405")+"-"+id.String()+".csv")
}

func sanitize(ledger string) string {
	s := strings.TrimSpace(ledger)
	s = strings.ReplaceAll(s, "/", "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// ParseURI splits gs://bucket/path/to/object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
