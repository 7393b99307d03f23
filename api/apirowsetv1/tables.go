package apirowsetv1

import (
	"context"
	"net/http"

	"github.com/fulldump/rowsetdb/backing"
)

type createTableRequest struct {
	Name    string           `json:"name"`
	Columns []backing.Column `json:"columns"`
}

func createTable(ctx context.Context, w http.ResponseWriter, input *createTableRequest) (*createTableRequest, error) {

	err := GetServicer(ctx).CreateTable(input.Name, input.Columns)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return input, nil
}
