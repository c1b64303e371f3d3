package service

import (
	"context"
	"fmt"

	"shopcore/internal/domerr"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"

	"github.com/google/uuid"
)

// CategoryService defines business operations on the category tree.
// All traversals are iterative over the parent/child adjacency — no
// recursion, and cycle detection is explicit.
type CategoryService interface {
	Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)

	// SoftDelete marks the category and all its descendants deleted in a
	// single logical operation. Re-deleting is a no-op.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Restore clears the deleted flag on exactly the target; descendants
	// stay deleted unless independently restored. The asymmetry with
	// SoftDelete is intentional.
	Restore(ctx context.Context, id uuid.UUID) error

	ListRoots(ctx context.Context, activeOnly bool) ([]dto.CategoryResponse, error)
	ListChildren(ctx context.Context, id uuid.UUID, activeOnly bool) ([]dto.CategoryResponse, error)
	GetAncestors(ctx context.Context, id uuid.UUID) ([]dto.CategoryResponse, error)
	GetDepth(ctx context.Context, id uuid.UUID) (int, error)
	GetAllDescendants(ctx context.Context, id uuid.UUID, includeDeleted bool) ([]dto.CategoryResponse, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func mapCategory(c model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
		ImageURL:    c.ImageURL,
		Active:      c.Active,
		Deleted:     c.IsDeleted(),
	}
}

// validateParent ensures the proposed parent exists and is not deleted.
func (s *categoryService) validateParent(ctx context.Context, parentID uuid.UUID) error {
	parent, err := s.repo.FindByIDIncludeDeleted(ctx, parentID)
	if err != nil {
		return domerr.Validation("parent_id", "parent category not found")
	}
	if parent.IsDeleted() {
		return domerr.Validation("parent_id", "cannot assign a deleted category as parent")
	}
	return nil
}

// checkNoCycle walks the proposed parent's ancestor chain upward. If id
// appears in that chain (or the parent is id itself), the reassignment
// would create a cycle. The walk terminates because persisted chains are
// acyclic; the visited set guards against surprises anyway.
func (s *categoryService) checkNoCycle(ctx context.Context, id, parentID uuid.UUID) error {
	if parentID == id {
		return domerr.ErrCircularReference
	}
	visited := map[uuid.UUID]bool{id: true}
	current := parentID
	for {
		if visited[current] {
			return domerr.ErrCircularReference
		}
		visited[current] = true

		node, err := s.repo.FindByIDIncludeDeleted(ctx, current)
		if err != nil {
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	c := &model.Category{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if req.ParentID != nil && *req.ParentID != "" {
		pid, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return nil, domerr.Validation("parent_id", "invalid uuid")
		}
		if err := s.validateParent(ctx, pid); err != nil {
			return nil, err
		}
		c.ParentID = &pid
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	resp := mapCategory(*c)
	return &resp, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate-then-commit: the parent reassignment is fully checked
	// before any field is persisted.
	if req.ParentID != nil {
		if *req.ParentID == "" {
			c.ParentID = nil
		} else {
			pid, err := uuid.Parse(*req.ParentID)
			if err != nil {
				return nil, domerr.Validation("parent_id", "invalid uuid")
			}
			if err := s.validateParent(ctx, pid); err != nil {
				return nil, err
			}
			if err := s.checkNoCycle(ctx, id, pid); err != nil {
				return nil, err
			}
			c.ParentID = &pid
		}
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.ImageURL != nil {
		c.ImageURL = req.ImageURL
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	resp := mapCategory(*c)
	return &resp, nil
}

// collectSubtreeIDs walks children edges breadth-first from root and
// returns root plus every descendant id, visiting each node exactly once.
func (s *categoryService) collectSubtreeIDs(ctx context.Context, root uuid.UUID, includeDeleted bool) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]bool{root: true}
	order := []uuid.UUID{root}
	queue := []uuid.UUID{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.repo.ChildIDs(ctx, current, includeDeleted)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child] {
				continue
			}
			visited[child] = true
			order = append(order, child)
			queue = append(queue, child)
		}
	}
	return order, nil
}

func (s *categoryService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.FindByIDIncludeDeleted(ctx, id)
	if err != nil {
		return err
	}
	if c.IsDeleted() {
		// Idempotent re-delete.
		return nil
	}

	// Only non-deleted descendants join the cascade; already deleted
	// subtrees keep their state.
	ids, err := s.collectSubtreeIDs(ctx, id, false)
	if err != nil {
		return err
	}

	// Protect: block the cascade while products still reference any
	// category in the set.
	n, err := s.repo.CountProducts(ctx, ids)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("category has %d product(s): %w", n, domerr.ErrReferenceProtected)
	}

	return s.repo.MarkDeleted(ctx, ids)
}

func (s *categoryService) Restore(ctx context.Context, id uuid.UUID) error {
	return s.repo.Restore(ctx, id)
}

func (s *categoryService) ListRoots(ctx context.Context, activeOnly bool) ([]dto.CategoryResponse, error) {
	list, err := s.repo.ListRoots(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return mapCategories(list), nil
}

func (s *categoryService) ListChildren(ctx context.Context, id uuid.UUID, activeOnly bool) ([]dto.CategoryResponse, error) {
	if _, err := s.repo.FindByIDIncludeDeleted(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.repo.ListChildren(ctx, id, activeOnly)
	if err != nil {
		return nil, err
	}
	return mapCategories(list), nil
}

// GetAncestors walks parent_id upward to the root, ordered from immediate
// parent to root. A repeated node means a persisted cycle, which the
// write paths are supposed to make impossible — surfaced loudly if seen.
func (s *categoryService) GetAncestors(ctx context.Context, id uuid.UUID) ([]dto.CategoryResponse, error) {
	c, err := s.repo.FindByIDIncludeDeleted(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]bool{id: true}
	var ancestors []dto.CategoryResponse
	current := c.ParentID
	for current != nil {
		if visited[*current] {
			return nil, fmt.Errorf("ancestor walk revisited %s: %w", current, domerr.ErrCircularReference)
		}
		visited[*current] = true

		node, err := s.repo.FindByIDIncludeDeleted(ctx, *current)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, mapCategory(*node))
		current = node.ParentID
	}
	return ancestors, nil
}

func (s *categoryService) GetDepth(ctx context.Context, id uuid.UUID) (int, error) {
	ancestors, err := s.GetAncestors(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(ancestors), nil
}

func (s *categoryService) GetAllDescendants(ctx context.Context, id uuid.UUID, includeDeleted bool) ([]dto.CategoryResponse, error) {
	if _, err := s.repo.FindByIDIncludeDeleted(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.collectSubtreeIDs(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	// Drop the root itself.
	list, err := s.repo.ListByIDsIncludeDeleted(ctx, ids[1:])
	if err != nil {
		return nil, err
	}
	return mapCategories(list), nil
}

func mapCategories(list []model.Category) []dto.CategoryResponse {
	result := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategory(c))
	}
	return result
}
