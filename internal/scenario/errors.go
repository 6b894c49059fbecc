package scenario

import "errors"

var (
	ErrUnknownMaterial     = errors.New("unknown material")
	ErrUnknownNode         = errors.New("unknown node")
	ErrUnknownStrategy     = errors.New("unknown strategy")
	ErrMissingParameter    = errors.New("missing strategy parameter")
	ErrUnexpectedParameter = errors.New("parameter not accepted by strategy")
	ErrDuplicateID         = errors.New("duplicate node id")
	ErrUnsupportedFormat   = errors.New("unsupported scenario format")
	ErrEmptyScenario       = errors.New("scenario has no stepped component")
)
