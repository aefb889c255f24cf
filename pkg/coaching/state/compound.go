package state

import (
	"fmt"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
)

func requireDistinct(a, b *entity.Identity) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: two existing identities are required", ErrPrecondition)
	}
	if a.Id == b.Id {
		return fmt.Errorf("%w: identity %q cannot be combined with itself", ErrPrecondition, a.Label)
	}
	return nil
}

// PlanCombine picks the survivor of combining first and second. When exactly one of them is
// in the general category the other survives; otherwise the first-named identity survives.
func PlanCombine(first, second *entity.Identity) (survivor, absorbed *entity.Identity, err error) {
	if err := requireDistinct(first, second); err != nil {
		return nil, nil, err
	}
	firstGeneral := first.Category == constant.CategoryGeneral
	secondGeneral := second.Category == constant.CategoryGeneral
	if firstGeneral && !secondGeneral {
		return second, first, nil
	}
	return first, second, nil
}

// ApplyCombine folds absorbed into survivor: notes are appended with a provenance prefix and
// the survivor is renamed "survivor/absorbed". Deleting absorbed is the caller's job.
func ApplyCombine(survivor, absorbed *entity.Identity) {
	for _, note := range absorbed.Notes {
		survivor.Notes = append(survivor.Notes, fmt.Sprintf("[from %s] %s", absorbed.Label, note))
	}
	if survivor.Statement == "" {
		survivor.Statement = absorbed.Statement
	}
	if survivor.VisualizationText == "" {
		survivor.VisualizationText = absorbed.VisualizationText
	}
	survivor.Label = CombinedLabel(survivor, absorbed)
}

// CombinedLabel is the label the survivor takes after absorbing absorbed.
func CombinedLabel(survivor, absorbed *entity.Identity) string {
	return survivor.Label + "/" + absorbed.Label
}

// ApplyNest copies the child's notes onto the parent, adds a summary note and archives the child.
// Neither identity is renamed.
func ApplyNest(child, parent *entity.Identity) error {
	if err := requireDistinct(child, parent); err != nil {
		return err
	}
	for _, note := range child.Notes {
		parent.Notes = append(parent.Notes, fmt.Sprintf("[nested from %s] %s", child.Label, note))
	}
	parent.Notes = append(parent.Notes, fmt.Sprintf("Nested %s (%s) under %s", child.Label, child.Category, parent.Label))
	Archive(child)
	return nil
}
