package categories

import (
	"fmt"

	"github.com/google/uuid"
)

// HasChildrenError refuses the deletion of a category that still has children.
type HasChildrenError struct {
	ID       uuid.UUID
	Children int
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("category %s has %d child categories", e.ID, e.Children)
}

// CycleError reports a parent assignment that would make a category its own ancestor.
type CycleError struct {
	ID       uuid.UUID
	ParentID uuid.UUID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("category %s cannot be placed under its descendant %s", e.ID, e.ParentID)
}

type UnknownParentError struct {
	ParentID uuid.UUID
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("parent category %s not found", e.ParentID)
}
