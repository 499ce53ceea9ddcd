package repair

import "errors"

// ErrDivergence indicates the iterative repair exceeded its mutation
// budget without reaching a consistent log. Fatal for the run; remaining
// violating pairs are logged for manual inspection.
var ErrDivergence = errors.New("repair exceeded mutation budget")
