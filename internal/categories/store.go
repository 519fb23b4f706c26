package categories

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Store is an arena of categories indexed by id. Parent links are resolved by
// lookup, so a corrupted cyclic input cannot trap a walk.
type Store struct {
	nodes    map[uuid.UUID]models.Category
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
}

// Node is a category with its children nested, as returned by get-all-categories.
type Node struct {
	models.Category
	Children []Node
}

// NewStore indexes the flat category list. Order within each sibling group
// follows name, then id.
func NewStore(list []models.Category) *Store {
	s := &Store{
		nodes:    make(map[uuid.UUID]models.Category, len(list)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range list {
		s.nodes[c.ID] = c
	}
	for _, c := range list {
		// a dangling parent is treated as a root so the node stays reachable
		if c.ParentID == nil || !s.Has(*c.ParentID) {
			s.roots = append(s.roots, c.ID)
			continue
		}
		s.children[*c.ParentID] = append(s.children[*c.ParentID], c.ID)
	}
	s.sortIDs(s.roots)
	for parent := range s.children {
		s.sortIDs(s.children[parent])
	}
	return s
}

func (s *Store) sortIDs(ids []uuid.UUID) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := s.nodes[ids[i]], s.nodes[ids[j]]
		if a.Name != b.Name {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return a.ID.String() < b.ID.String()
	})
}

func (s *Store) Len() int {
	return len(s.nodes)
}

func (s *Store) Has(id uuid.UUID) bool {
	_, ok := s.nodes[id]
	return ok
}

func (s *Store) Get(id uuid.UUID) (models.Category, bool) {
	c, ok := s.nodes[id]
	return c, ok
}

// AncestorChain returns the root-first path ending at id. It is empty for a nil
// or unknown id. The walk visits at most Len nodes and stops at a repeated node.
func (s *Store) AncestorChain(id uuid.UUID) []models.Category {
	if id == uuid.Nil || !s.Has(id) {
		return nil
	}

	visited := make(map[uuid.UUID]struct{}, 8)
	var chain []models.Category
	current := id
	for steps := 0; steps < len(s.nodes); steps++ {
		if _, seen := visited[current]; seen {
			break
		}
		node, ok := s.nodes[current]
		if !ok {
			break
		}
		visited[current] = struct{}{}
		chain = append(chain, node)
		if node.ParentID == nil {
			break
		}
		current = *node.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// DirectChildren lists categories whose parent is id. uuid.Nil returns the roots.
func (s *Store) DirectChildren(id uuid.UUID) []models.Category {
	ids := s.children[id]
	if id == uuid.Nil {
		ids = s.roots
	}
	out := make([]models.Category, 0, len(ids))
	for _, childID := range ids {
		out = append(out, s.nodes[childID])
	}
	return out
}

// Path renders the ancestor chain as "root/child/leaf".
func (s *Store) Path(id uuid.UUID) string {
	chain := s.AncestorChain(id)
	names := make([]string, len(chain))
	for i, c := range chain {
		names[i] = c.Name
	}
	return strings.Join(names, "/")
}

// Tree nests every category under its parent, starting from the roots.
func (s *Store) Tree() []Node {
	visited := make(map[uuid.UUID]struct{}, len(s.nodes))
	return s.subtree(uuid.Nil, visited)
}

func (s *Store) subtree(parent uuid.UUID, visited map[uuid.UUID]struct{}) []Node {
	kids := s.DirectChildren(parent)
	out := make([]Node, 0, len(kids))
	for _, c := range kids {
		if _, seen := visited[c.ID]; seen {
			continue
		}
		visited[c.ID] = struct{}{}
		out = append(out, Node{Category: c, Children: s.subtree(c.ID, visited)})
	}
	return out
}

// ValidateParent checks that id may hang under parentID. A nil parent is always
// valid. parentID must exist and must not be id or one of its descendants.
func (s *Store) ValidateParent(id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if !s.Has(*parentID) {
		return &UnknownParentError{ParentID: *parentID}
	}
	if id == uuid.Nil {
		return nil
	}
	for _, ancestor := range s.AncestorChain(*parentID) {
		if ancestor.ID == id {
			return &CycleError{ID: id, ParentID: *parentID}
		}
	}
	return nil
}
