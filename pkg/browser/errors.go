package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/jzx17/pagecheck/pkg/types"
	"github.com/playwright-community/playwright-go"
)

// messageKinds classifies driver errors that carry no typed sentinel
var messageKinds = []struct {
	fragment string
	kind     types.FaultKind
}{
	{"not attached to the dom", types.FaultStaleElement},
	{"element is detached", types.FaultStaleElement},
	{"execution context was destroyed", types.FaultStaleElement},
	{"element is not visible", types.FaultElementNotInteractable},
	{"element is not enabled", types.FaultElementNotInteractable},
	{"element is not editable", types.FaultElementNotInteractable},
	{"intercepts pointer events", types.FaultElementNotInteractable},
	{"outside of the viewport", types.FaultElementNotInteractable},
	{"no element matches", types.FaultElementNotFound},
	{"resolved to 0 elements", types.FaultElementNotFound},
	{"net::err_", types.FaultNavigation},
	{"ns_error_", types.FaultNavigation},
	{"navigation failed", types.FaultNavigation},
}

// MapError tags a playwright error with its fault kind. Context errors and
// errors that already carry a fault pass through unchanged; anything else coming
// out of the driver becomes a generic browser fault.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fault *types.Fault
	if errors.As(err, &fault) {
		return err
	}
	return types.NewFault(classify(err), op, err)
}

func classify(err error) types.FaultKind {
	switch {
	case errors.Is(err, playwright.ErrTimeout):
		return types.FaultTimeout
	case errors.Is(err, playwright.ErrTargetClosed):
		return types.FaultTargetClosed
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageKinds {
		if strings.Contains(msg, m.fragment) {
			return m.kind
		}
	}
	return types.FaultBrowser
}
