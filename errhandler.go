package spa

import (
	"errors"

	"github.com/coalwatch/spa/view"
)

// ErrorView is the template-friendly form of a render error, passed to the
// error component as the "errors" variable.
type ErrorView struct {
	Message   string `expr:"message"`
	Type      string `expr:"type"`
	Component string `expr:"component"`
	Path      string `expr:"path"`
}

type errorHandlerComponent struct {
	// comp is the page component.
	comp view.Component

	// fallback is rendered instead of comp when comp fails. It may be nil.
	fallback view.Component
}

var _ view.Component = (*errorHandlerComponent)(nil)

func newErrorHandlerComponent(comp, fallback view.Component) *errorHandlerComponent {
	return &errorHandlerComponent{comp: comp, fallback: fallback}
}

func (eh *errorHandlerComponent) Render(s view.Scope) (any, error) {
	rr, err := eh.comp.Render(s)
	if err == nil {
		return rr, nil
	}

	if ps, ok := s.(*pageScope); ok {
		ps.fail(err)
	}

	if eh.fallback == nil {
		return nil, err
	}

	return eh.fallback.Render(s.Spawn(map[string]any{
		"errors": errorViews(err),
	}))
}

func errorViews(err error) []*ErrorView {
	errs := []error{err}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		errs = multi.Unwrap()
	}

	views := make([]*ErrorView, 0, len(errs))
	for _, e := range errs {
		ev := &ErrorView{Message: e.Error(), Type: "generic"}
		var ce *view.ComponentError
		if errors.As(e, &ce) {
			ev.Type = "component"
			ev.Component = ce.Component
			ev.Path = ce.Path
			ev.Message = ce.Err.Error()
		}
		views = append(views, ev)
	}
	return views
}
