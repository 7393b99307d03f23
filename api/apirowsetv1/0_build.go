package apirowsetv1

import (
	"github.com/fulldump/box"
)

func BuildV1RowSet(v1 *box.R) *box.R {

	v1.Resource("/tables").
		WithActions(
			box.Post(createTable).WithName("createTable"),
		)

	rowsets := v1.Resource("/rowsets").
		WithActions(
			box.Get(listRowSets).WithName("listRowSets"),
			box.Post(createRowSet).WithName("createRowSet"),
			box.ActionPost(restore).WithName("restore"),
		)

	v1.Resource("/rowsets/{rowsetName}").
		WithActions(
			box.Get(getRowSet).WithName("getRowSet"),
			box.ActionPost(find).WithName("find"),
			box.ActionPost(insert).WithName("insert"),
			box.ActionPost(update).WithName("update"),
			box.ActionPost(deleteRow).WithName("delete"),
			box.ActionPost(undo).WithName("undo"),
			box.ActionPost(restoreOriginal).WithName("restoreOriginal"),
			box.ActionPost(refresh).WithName("refresh"),
			box.ActionPost(synchronize).WithName("synchronize"),
			box.ActionPost(snapshot).WithName("snapshot"),
			box.ActionPost(page).WithName("page"),
			box.ActionPost(drop).WithName("drop"),
		)

	return rowsets
}
