package apirowsetv1

import (
	"context"
	"net/http"

	"github.com/fulldump/rowsetdb/service"
)

func find(ctx context.Context, input *service.FindInput) ([]*service.Row, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Find(input)
}

func insert(ctx context.Context, w http.ResponseWriter, input map[string]any) (*service.Row, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}

	row, err := entry.Insert(input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return row, nil
}

func update(ctx context.Context, input *service.UpdateInput) (*service.Row, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Update(input)
}

func deleteRow(ctx context.Context, input *service.RowInput) (*service.Row, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Delete(input)
}

func undo(ctx context.Context, input *service.RowInput) (*service.Row, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Undo(input)
}

func page(ctx context.Context, input *service.PageInput) (*service.Page, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Page(ctx, input)
}
