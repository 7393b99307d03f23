package apirowsetv1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/rowsetdb/service"
)

func listRowSets(ctx context.Context) ([]*service.Info, error) {
	result := []*service.Info{}
	for _, entry := range GetServicer(ctx).ListRowSets() {
		result = append(result, entry.Info())
	}
	return result, nil
}

func createRowSet(ctx context.Context, w http.ResponseWriter, input *service.CreateInput) (*service.Info, error) {

	entry, err := GetServicer(ctx).CreateRowSet(ctx, input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return entry.Info(), nil
}

type restoreRequest struct {
	Name     string          `json:"name"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func restore(ctx context.Context, w http.ResponseWriter, input *restoreRequest) (*service.Info, error) {

	entry, err := GetServicer(ctx).Restore(input.Name, input.Snapshot)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return entry.Info(), nil
}

func getRowSet(ctx context.Context) (*service.Info, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Info(), nil
}

func drop(ctx context.Context) error {
	return GetServicer(ctx).DropRowSet(box.GetUrlParameter(ctx, "rowsetName"))
}

func refresh(ctx context.Context) (*service.Info, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	err = entry.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Info(), nil
}

func restoreOriginal(ctx context.Context) (*service.Info, error) {
	entry, err := getEntry(ctx)
	if err != nil {
		return nil, err
	}
	err = entry.Restore()
	if err != nil {
		return nil, err
	}
	return entry.Info(), nil
}
