package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Section membership is gated here and only here: both add paths run the
// same policy, checked in order, and the first failure aborts with no
// state change. Rejections are logged, never raised — callers simply
// observe that nothing changed.

var (
	errNoActiveLayout    = errors.New("no active layout")
	errSectionNotFound   = errors.New("section not found")
	errComponentNotFound = errors.New("component not found")
	errTypeNotAllowed    = errors.New("component type not allowed in section")
	errSectionAtCapacity = errors.New("section has reached its component limit")
)

// sectionAccepts runs the declarative constraint policy for one candidate.
func sectionAccepts(section *Section, t ComponentType) error {
	if !section.Constraints.Allows(t) {
		return fmt.Errorf("%w: %s in %s", errTypeNotAllowed, t, section.Name)
	}
	if max := section.Constraints.MaxComponents; max > 0 && len(section.Components) >= max {
		return fmt.Errorf("%w: %s", errSectionAtCapacity, section.Name)
	}
	return nil
}

// AttachComponentToSection re-homes an existing component into the target
// section, updating both sides of the membership relation and optionally
// its position. Returns false when the policy rejects or anything is
// missing; state is untouched in that case.
func (s *Store) AttachComponentToSection(ctx context.Context, componentID, sectionID string, pos *Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	section, comp, err := s.resolveSectionTarget(sectionID, componentID)
	if err != nil {
		s.rejectSectionAdd(err, sectionID)
		return false
	}
	if err := sectionAccepts(section, comp.Type); err != nil {
		s.rejectSectionAdd(err, sectionID)
		return false
	}

	s.detachLocked(comp)
	section.Components = append(section.Components, comp.ID)
	comp.SectionID = section.ID
	if pos != nil {
		comp.Position = *pos
	}
	s.stamp()
	s.persistProject(ctx)
	return true
}

// AddComponentToSection allocates a new component directly inside the
// target section and selects it. Position defaults to the section origin.
func (s *Store) AddComponentToSection(ctx context.Context, draft Component, sectionID string, pos *Position) (Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	section, _, err := s.resolveSectionTarget(sectionID, "")
	if err != nil {
		s.rejectSectionAdd(err, sectionID)
		return Component{}, false
	}
	if err := sectionAccepts(section, draft.Type); err != nil {
		s.rejectSectionAdd(err, sectionID)
		return Component{}, false
	}

	comp := draft.Clone()
	comp.ID = NewComponentID()
	comp.SectionID = section.ID
	if pos != nil {
		comp.Position = *pos
	} else {
		comp.Position = Position{}
	}

	s.project.Components = append(s.project.Components, comp)
	section.Components = append(section.Components, comp.ID)
	s.selected = comp.ID
	s.stamp()
	s.persistProject(ctx)
	return comp.Clone(), true
}

// resolveSectionTarget looks up the target section and, when componentID
// is non-empty, the component being re-homed.
func (s *Store) resolveSectionTarget(sectionID, componentID string) (*Section, *Component, error) {
	if s.project.Layout == nil {
		return nil, nil, errNoActiveLayout
	}
	section := s.project.Layout.Section(sectionID)
	if section == nil {
		return nil, nil, errSectionNotFound
	}
	if componentID == "" {
		return section, nil, nil
	}
	comp := s.project.Component(componentID)
	if comp == nil {
		return nil, nil, errComponentNotFound
	}
	return section, comp, nil
}

// detachLocked removes the component from its current section membership,
// if any, so a re-home never leaves a dangling entry behind.
func (s *Store) detachLocked(comp *Component) {
	if comp.SectionID == "" || s.project.Layout == nil {
		return
	}
	if prev := s.project.Layout.Section(comp.SectionID); prev != nil {
		members := prev.Components[:0]
		for _, id := range prev.Components {
			if id != comp.ID {
				members = append(members, id)
			}
		}
		prev.Components = members
	}
	comp.SectionID = ""
}

func (s *Store) rejectSectionAdd(err error, sectionID string) {
	s.logger.Warn("section add rejected",
		slog.String("section_id", sectionID),
		slog.Any("reason", err),
	)
}
