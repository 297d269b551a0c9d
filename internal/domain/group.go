package domain

type GroupID string

// Group is a named talk group. It exists only while it has members;
// the app layer creates it on first join and drops it on last leave.
type Group struct {
	ID      GroupID
	Members map[Token]struct{}
}

func NewGroup(id GroupID) *Group {
	return &Group{ID: id, Members: make(map[Token]struct{})}
}
