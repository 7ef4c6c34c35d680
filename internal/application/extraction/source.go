package extraction

import (
	"bytes"
	"context"

	"github.com/turtacn/rostertag/internal/infrastructure/fileio"
	"github.com/turtacn/rostertag/internal/infrastructure/storage/minio"
	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
)

// Source loads the inputs of a run by reference.  The reference is a file
// path or an object key; its extension selects the format.
type Source interface {
	Glossary(ctx context.Context, ref string) ([]rx.GlossaryEntry, error)
	Records(ctx context.Context, ref string) (*rx.Table, error)
}

// Sink stores the output of a run under ref.
type Sink interface {
	Write(ctx context.Context, ref string, res *rx.Result) error
}

// LocalFiles reads and writes the local filesystem.
type LocalFiles struct{}

func (LocalFiles) Glossary(_ context.Context, ref string) ([]rx.GlossaryEntry, error) {
	return fileio.ReadGlossaryFile(ref)
}

func (LocalFiles) Records(_ context.Context, ref string) (*rx.Table, error) {
	return fileio.ReadRecordsFile(ref)
}

func (LocalFiles) Write(_ context.Context, ref string, res *rx.Result) error {
	return fileio.WriteResultFile(ref, res)
}

// ObjectFiles reads and writes objects in the MinIO bucket.
type ObjectFiles struct {
	Store minio.ObjectStore
}

func NewObjectFiles(store minio.ObjectStore) *ObjectFiles {
	return &ObjectFiles{Store: store}
}

func (o *ObjectFiles) Glossary(ctx context.Context, ref string) ([]rx.GlossaryEntry, error) {
	format, err := fileio.FormatFromPath(ref)
	if err != nil {
		return nil, err
	}
	data, err := o.Store.GetBytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	return fileio.ReadGlossary(bytes.NewReader(data), format)
}

func (o *ObjectFiles) Records(ctx context.Context, ref string) (*rx.Table, error) {
	format, err := fileio.FormatFromPath(ref)
	if err != nil {
		return nil, err
	}
	data, err := o.Store.GetBytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	return fileio.ReadRecords(bytes.NewReader(data), format)
}

func (o *ObjectFiles) Write(ctx context.Context, ref string, res *rx.Result) error {
	format, err := fileio.FormatFromPath(ref)
	if err != nil {
		return err
	}
	data, err := fileio.EncodeResult(res, format)
	if err != nil {
		return err
	}
	_, err = o.Store.PutBytes(ctx, ref, data, minio.ContentTypeFor(ref))
	return err
}

//Personal.AI order the ending
