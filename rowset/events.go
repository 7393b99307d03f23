package rowset

type EventKind int

const (
	CursorMoved EventKind = iota + 1
	RowChanged
	RowSetChanged
)

type Event struct {
	Kind   EventKind
	RowSet *RowSet
	// Row is the visible ordinal of the current row, 0 when there is none.
	Row int
}

// Listener receives change notifications synchronously, in registration
// order.
type Listener interface {
	CursorMoved(e Event)
	RowChanged(e Event)
	RowSetChanged(e Event)
}

// ListenerFuncs adapts plain functions to Listener; nil funcs are skipped.
type ListenerFuncs struct {
	OnCursorMoved   func(e Event)
	OnRowChanged    func(e Event)
	OnRowSetChanged func(e Event)
}

func (l *ListenerFuncs) CursorMoved(e Event) {
	if l.OnCursorMoved != nil {
		l.OnCursorMoved(e)
	}
}

func (l *ListenerFuncs) RowChanged(e Event) {
	if l.OnRowChanged != nil {
		l.OnRowChanged(e)
	}
}

func (l *ListenerFuncs) RowSetChanged(e Event) {
	if l.OnRowSetChanged != nil {
		l.OnRowSetChanged(e)
	}
}

func (rs *RowSet) AddListener(l Listener) {
	rs.listeners = append(rs.listeners, l)
}

func (rs *RowSet) RemoveListener(l Listener) {
	for i, registered := range rs.listeners {
		if registered == l {
			rs.listeners = append(rs.listeners[:i], rs.listeners[i+1:]...)
			return
		}
	}
}

func (rs *RowSet) notify(kind EventKind) {
	if len(rs.listeners) == 0 {
		return
	}
	e := Event{Kind: kind, RowSet: rs, Row: rs.GetRow()}
	for _, l := range rs.listeners {
		switch kind {
		case CursorMoved:
			l.CursorMoved(e)
		case RowChanged:
			l.RowChanged(e)
		case RowSetChanged:
			l.RowSetChanged(e)
		}
	}
}
