package views

import "fmt"

// Action is the operation a request performs on a resource.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
	ActionUploadImage   Action = "upload_image"
)

func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionList, ActionRetrieve, ActionCreate, ActionUpdate,
		ActionPartialUpdate, ActionDestroy, ActionUploadImage:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Mutates reports whether the action writes to the record.
func (a Action) Mutates() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy, ActionUploadImage:
		return true
	}
	return false
}

// Partial reports whether absent input fields keep their stored value.
func (a Action) Partial() bool {
	return a == ActionPartialUpdate
}
