package categories

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func cat(name string, parent *models.Category) models.Category {
	c := models.Category{ID: uuid.New(), Name: name}
	if parent != nil {
		id := parent.ID
		c.ParentID = &id
	}
	return c
}

func TestAncestorChainDepth(t *testing.T) {
	root := cat("Apparel", nil)
	mid := cat("Shoes", &root)
	leaf := cat("Running", &mid)
	other := cat("Books", nil)
	store := NewStore([]models.Category{leaf, other, root, mid})

	tests := []struct {
		name string
		id   uuid.UUID
		want []string
	}{
		{name: "root", id: root.ID, want: []string{"Apparel"}},
		{name: "depth one", id: mid.ID, want: []string{"Apparel", "Shoes"}},
		{name: "depth two", id: leaf.ID, want: []string{"Apparel", "Shoes", "Running"}},
		{name: "nil id", id: uuid.Nil, want: nil},
		{name: "unknown id", id: uuid.New(), want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chain := store.AncestorChain(tc.id)
			if len(chain) != len(tc.want) {
				t.Fatalf("expected %d entries, got %d", len(tc.want), len(chain))
			}
			for i, c := range chain {
				if c.Name != tc.want[i] {
					t.Fatalf("entry %d: expected %q, got %q", i, tc.want[i], c.Name)
				}
			}
			if len(chain) > 0 && chain[len(chain)-1].ID != tc.id {
				t.Fatalf("chain must end at the requested node")
			}
		})
	}

	if got := store.Path(leaf.ID); got != "Apparel/Shoes/Running" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestAncestorChainTerminatesOnCycle(t *testing.T) {
	a := models.Category{ID: uuid.New(), Name: "a"}
	b := models.Category{ID: uuid.New(), Name: "b"}
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	store := NewStore([]models.Category{a, b})

	chain := store.AncestorChain(a.ID)
	if len(chain) != 2 {
		t.Fatalf("expected the walk to stop after visiting both nodes, got %d", len(chain))
	}
	if len(store.Tree()) != 0 {
		t.Fatalf("a cycle has no root to hang from")
	}
}

func TestDirectChildrenPartition(t *testing.T) {
	root1 := cat("Home", nil)
	root2 := cat("Garden", nil)
	a := cat("Kitchen", &root1)
	b := cat("Bath", &root1)
	c := cat("Tools", &root2)
	d := cat("Knives", &a)
	all := []models.Category{root1, root2, a, b, c, d}
	store := NewStore(all)

	seen := map[uuid.UUID]int{}
	for _, parent := range all {
		for _, child := range store.DirectChildren(parent.ID) {
			if child.ParentID == nil || *child.ParentID != parent.ID {
				t.Fatalf("%s listed under wrong parent", child.Name)
			}
			seen[child.ID]++
		}
	}

	roots := store.DirectChildren(uuid.Nil)
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if len(seen) != len(all)-len(roots) {
		t.Fatalf("expected %d non-root children, got %d", len(all)-len(roots), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("category %s appeared %d times", id, n)
		}
	}
	for _, r := range roots {
		if _, ok := seen[r.ID]; ok {
			t.Fatalf("root %s must not be anyone's child", r.Name)
		}
	}
}

func TestTreeNestsChildren(t *testing.T) {
	root := cat("Electronics", nil)
	phones := cat("Phones", &root)
	laptops := cat("Laptops", &root)
	store := NewStore([]models.Category{phones, root, laptops})

	tree := store.Tree()
	if len(tree) != 1 || tree[0].ID != root.ID {
		t.Fatalf("expected a single root, got %+v", tree)
	}
	if len(tree[0].Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree[0].Children))
	}
	if tree[0].Children[0].Name != "Laptops" || tree[0].Children[1].Name != "Phones" {
		t.Fatalf("children should be ordered by name")
	}
}

func TestValidateParent(t *testing.T) {
	root := cat("root", nil)
	child := cat("child", &root)
	grandchild := cat("grandchild", &child)
	store := NewStore([]models.Category{root, child, grandchild})

	unknown := uuid.New()
	tests := []struct {
		name     string
		id       uuid.UUID
		parentID *uuid.UUID
		wantErr  any
	}{
		{name: "root move", id: child.ID, parentID: nil},
		{name: "new node", id: uuid.Nil, parentID: &child.ID},
		{name: "sibling move", id: grandchild.ID, parentID: &root.ID},
		{name: "self", id: child.ID, parentID: &child.ID, wantErr: &CycleError{}},
		{name: "descendant", id: root.ID, parentID: &grandchild.ID, wantErr: &CycleError{}},
		{name: "unknown", id: child.ID, parentID: &unknown, wantErr: &UnknownParentError{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := store.ValidateParent(tc.id, tc.parentID)
			switch want := tc.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			case *CycleError:
				if _, ok := err.(*CycleError); !ok {
					t.Fatalf("expected CycleError, got %v", err)
				}
			case *UnknownParentError:
				if _, ok := err.(*UnknownParentError); !ok {
					t.Fatalf("expected UnknownParentError, got %v (%T)", err, want)
				}
			}
		})
	}
}
